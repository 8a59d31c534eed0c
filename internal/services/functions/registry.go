// Package functions provides the registry of deterministic operations that
// can be invoked inline from generated responses (premOp(4,1), factorial(5)).
package functions

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
)

// ErrUnknownFunction is returned when a call names a function that is not registered
var ErrUnknownFunction = errors.New("unknown function")

// Func is a callable registered by name. Implementations validate their own
// arity and argument types and return a typed error on misuse.
type Func func(args []interface{}) (interface{}, error)

// Registry maps symbolic names to callable operations
type Registry struct {
	funcs        map[string]Func
	descriptions map[string]string
	logger       arbor.ILogger
}

// NewRegistry creates a registry populated with the built-in function set
func NewRegistry(logger arbor.ILogger) *Registry {
	r := &Registry{
		funcs:        make(map[string]Func),
		descriptions: make(map[string]string),
		logger:       logger,
	}
	r.registerBuiltins()
	return r
}

// Register adds a function under a symbolic name
func (r *Registry) Register(name, description string, fn Func) {
	r.funcs[name] = fn
	r.descriptions[name] = description
}

// Has reports whether a function name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Descriptions returns a name -> description map of registered functions
func (r *Registry) Descriptions() map[string]string {
	out := make(map[string]string, len(r.descriptions))
	for name, desc := range r.descriptions {
		out[name] = desc
	}
	return out
}

// Call executes a registered function with the provided arguments. It returns
// ErrUnknownFunction for unregistered names; execution errors are returned
// as-is for the caller to embed.
func (r *Registry) Call(name string, args []interface{}) (interface{}, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	result, err := fn(args)
	if err != nil {
		r.logger.Warn().
			Str("function", name).
			Err(err).
			Msg("Function execution failed")
		return nil, err
	}

	r.logger.Debug().
		Str("function", name).
		Int("arg_count", len(args)).
		Msg("Function executed")

	return result, nil
}

func (r *Registry) registerBuiltins() {
	r.Register("premOp", "Custom operation that adds a plus twice b", premOp)
	r.Register("factorial", "Calculate the factorial of a number", factorial)
	r.Register("get_weather", "Get current weather information for a city (mock)", getWeather)
	r.Register("translate_text", "Translate text to another language (mock)", translateText)
	r.Register("calculate_mortgage", "Calculate monthly mortgage payment and total interest", calculateMortgage)
	r.Register("extract_numbers", "Extract all numbers from a text string", extractNumbers)
}

// asFloat coerces numeric argument values. Parsed integers arrive as int64,
// floats as float64.
func asFloat(arg interface{}) (float64, bool) {
	switch v := arg.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func asInt(arg interface{}) (int, bool) {
	switch v := arg.(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

func asString(arg interface{}) (string, bool) {
	s, ok := arg.(string)
	return s, ok
}

// premOp computes a + 2*b
func premOp(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("premOp expects 2 arguments, got %d", len(args))
	}
	a, okA := asFloat(args[0])
	b, okB := asFloat(args[1])
	if !okA || !okB {
		return nil, fmt.Errorf("premOp expects numeric arguments")
	}
	result := a + 2*b
	if result == math.Trunc(result) {
		return int64(result), nil
	}
	return result, nil
}

func factorial(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("factorial expects 1 argument, got %d", len(args))
	}
	n, ok := asInt(args[0])
	if !ok || n < 0 {
		return nil, fmt.Errorf("input must be a non-negative integer")
	}
	if n > 20 {
		return nil, fmt.Errorf("factorial input %d too large", n)
	}
	result := int64(1)
	for i := int64(2); i <= int64(n); i++ {
		result *= i
	}
	return result, nil
}

var weatherConditions = []string{"Sunny", "Cloudy", "Rainy", "Snowy"}

// getWeather returns mock weather data rather than calling a live API
func getWeather(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("get_weather expects 1 argument, got %d", len(args))
	}
	city, ok := asString(args[0])
	if !ok {
		return nil, fmt.Errorf("get_weather expects a city name")
	}
	return map[string]interface{}{
		"location":    city,
		"temperature": math.Round(rand.Float64()*350) / 10,
		"conditions":  weatherConditions[rand.Intn(len(weatherConditions))],
		"humidity":    30 + rand.Intn(71),
		"wind_speed":  math.Round(rand.Float64()*300) / 10,
	}, nil
}

var mockTranslations = map[string]map[string]string{
	"es": {"hello": "hola", "goodbye": "adiós", "thank you": "gracias"},
	"fr": {"hello": "bonjour", "goodbye": "au revoir", "thank you": "merci"},
	"de": {"hello": "hallo", "goodbye": "auf wiedersehen", "thank you": "danke"},
}

func translateText(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("translate_text expects 2 arguments, got %d", len(args))
	}
	text, okText := asString(args[0])
	lang, okLang := asString(args[1])
	if !okText || !okLang {
		return nil, fmt.Errorf("translate_text expects string arguments")
	}
	if translations, ok := mockTranslations[lang]; ok {
		if translated, found := translations[strings.ToLower(text)]; found {
			return translated, nil
		}
	}
	return fmt.Sprintf("[MOCK TRANSLATION to %s]: %s", lang, text), nil
}

func calculateMortgage(args []interface{}) (interface{}, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("calculate_mortgage expects 3 arguments, got %d", len(args))
	}
	principal, okP := asFloat(args[0])
	rate, okR := asFloat(args[1])
	years, okY := asInt(args[2])
	if !okP || !okR || !okY {
		return nil, fmt.Errorf("calculate_mortgage expects (principal, interest_rate, years)")
	}
	if years <= 0 {
		return nil, fmt.Errorf("loan term must be positive")
	}

	monthlyRate := rate / 12
	payments := float64(years * 12)

	var monthlyPayment float64
	if monthlyRate == 0 {
		monthlyPayment = principal / payments
	} else {
		factor := math.Pow(1+monthlyRate, payments)
		monthlyPayment = principal * (monthlyRate * factor) / (factor - 1)
	}

	totalPayment := monthlyPayment * payments
	return map[string]interface{}{
		"monthly_payment": math.Round(monthlyPayment*100) / 100,
		"total_payment":   math.Round(totalPayment*100) / 100,
		"total_interest":  math.Round((totalPayment-principal)*100) / 100,
	}, nil
}

var numberPattern = regexp.MustCompile(`-?\d+\.\d+|-?\d+`)

func extractNumbers(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("extract_numbers expects 1 argument, got %d", len(args))
	}
	text, ok := asString(args[0])
	if !ok {
		return nil, fmt.Errorf("extract_numbers expects a text argument")
	}
	matches := numberPattern.FindAllString(text, -1)
	numbers := make([]float64, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}
