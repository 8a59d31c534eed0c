package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Ingester loads corpus files into document storage. Markdown is reduced
// to plain text, PDFs go through content extraction, and text files pass
// through unchanged.
type Ingester struct {
	config  *common.CorpusConfig
	storage interfaces.DocumentStorage
	logger  arbor.ILogger
}

// NewIngester creates a corpus ingester
func NewIngester(config *common.CorpusConfig, storage interfaces.DocumentStorage, logger arbor.ILogger) *Ingester {
	return &Ingester{
		config:  config,
		storage: storage,
		logger:  logger,
	}
}

// IngestDir walks the configured corpus directory and loads every file with
// a supported extension. Returns the number of documents stored. A missing
// corpus directory is not an error; the store just stays empty.
func (i *Ingester) IngestDir() (int, error) {
	dir := i.config.Dir
	if dir == "" {
		return 0, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		i.logger.Warn().Str("dir", dir).Msg("Corpus directory does not exist, skipping ingestion")
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !i.supported(filepath.Ext(path)) {
			return nil
		}

		if err := i.IngestFile(path); err != nil {
			i.logger.Warn().Err(err).Str("path", path).Msg("Failed to ingest corpus file")
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("corpus walk failed: %w", err)
	}

	i.logger.Info().
		Str("dir", dir).
		Int("documents", count).
		Msg("Corpus ingestion completed")

	return count, nil
}

// IngestFile loads a single corpus file, replacing any prior documents
// from the same source path
func (i *Ingester) IngestFile(path string) error {
	content, err := i.extractText(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no text content extracted from %s", path)
	}

	if err := i.storage.DeleteBySource(path); err != nil {
		return err
	}

	doc := &models.Document{
		ID:      common.NewDocumentID(),
		Source:  path,
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content: content,
	}
	if err := i.storage.SaveDocument(doc); err != nil {
		return err
	}

	i.logger.Debug().
		Str("source", path).
		Int("content_length", len(content)).
		Msg("Ingested corpus document")

	return nil
}

func (i *Ingester) supported(ext string) bool {
	ext = strings.ToLower(ext)
	extensions := i.config.Extensions
	if len(extensions) == 0 {
		extensions = []string{".md", ".txt", ".pdf"}
	}
	for _, supported := range extensions {
		if ext == strings.ToLower(supported) {
			return true
		}
	}
	return false
}

func (i *Ingester) extractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return MarkdownToText(data), nil
	case ".pdf":
		return extractPDFText(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}
}

// MarkdownToText reduces markdown to plain text by walking the parsed AST
// and collecting text segments, block by block.
func MarkdownToText(source []byte) string {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// extractPDFText extracts page content from a PDF through pdfcpu's content
// extraction into a temp directory
func extractPDFText(path string) (string, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", path, err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "parley-pdf-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content from %s: %w", path, err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
			if err == nil {
				pageTexts[pageNum] = string(content)
			}
		}
	}

	var fullText strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if pageText, ok := pageTexts[pageNum]; ok {
			if fullText.Len() > 0 {
				fullText.WriteString("\n\n")
			}
			fullText.WriteString(pageText)
		}
	}

	return fullText.String(), nil
}
