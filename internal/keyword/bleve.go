package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/docqa/internal/models"
)

// DefaultSearchLimit is used when Search is called with a non-positive limit.
const DefaultSearchLimit = 10

// questionBoost ranks question matches above answer matches.
const questionBoost = 2.0

const deletePageSize = 500

// answerDoc is the stored form of one answered question.
type answerDoc struct {
	JobID         string  `json:"job_id"`
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	SourceSection string  `json:"source_section"`
	Confidence    float64 `json:"confidence"`
}

// BleveHistory implements HistoryIndex using Bleve.
type BleveHistory struct {
	index bleve.Index
}

// NewBleveHistory creates or opens a Bleve index at path.
// An empty path creates an in-memory index that is lost on Close.
func NewBleveHistory(path string) (*BleveHistory, error) {
	im := newMapping()

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveHistory{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveHistory{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveHistory{index: index}, nil
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer: lowercase + tokenize, no stemming.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("question", textField)
	docMapping.AddFieldMappingsAt("answer", textField)
	docMapping.AddFieldMappingsAt("source_section", textField)

	jobField := bleve.NewTextFieldMapping()
	jobField.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("job_id", jobField)

	docMapping.AddFieldMappingsAt("confidence", bleve.NewNumericFieldMapping())

	im.AddDocumentMapping("answer", docMapping)
	im.DefaultType = "answer"
	im.DefaultMapping = docMapping
	return im
}

func docID(jobID string, i int) string {
	return jobID + "/" + strconv.Itoa(i)
}

// IndexAnswers indexes the successful records of a job in a single batch.
func (b *BleveHistory) IndexAnswers(ctx context.Context, jobID string, records []*models.AnswerRecord) error {
	batch := b.index.NewBatch()
	for i, r := range records {
		if r == nil || r.Failed {
			continue
		}
		doc := answerDoc{
			JobID:         jobID,
			Question:      r.Question,
			Answer:        r.Answer,
			SourceSection: r.SourceSection,
			Confidence:    r.Confidence,
		}
		if err := batch.Index(docID(jobID, i), doc); err != nil {
			return fmt.Errorf("failed to add answer %d of job %s: %w", i, jobID, err)
		}
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index answers of job %s: %w", jobID, err)
	}
	return nil
}

// Search matches query against questions (boosted) and answers.
// An empty query matches every indexed answer.
func (b *BleveHistory) Search(ctx context.Context, query string, limit int) ([]*HistoryHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var q blevequery.Query
	if query == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		qq := bleve.NewMatchQuery(query)
		qq.SetField("question")
		qq.SetBoost(questionBoost)
		aq := bleve.NewMatchQuery(query)
		aq.SetField("answer")
		sq := bleve.NewMatchQuery(query)
		sq.SetField("source_section")
		q = bleve.NewDisjunctionQuery(qq, aq, sq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"*"}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*HistoryHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out = append(out, &HistoryHit{
			JobID:         stringField(hit.Fields, "job_id"),
			Question:      stringField(hit.Fields, "question"),
			Answer:        stringField(hit.Fields, "answer"),
			SourceSection: stringField(hit.Fields, "source_section"),
			Confidence:    floatField(hit.Fields, "confidence"),
			Score:         hit.Score,
		})
	}
	return out, nil
}

// DeleteJob removes all answers indexed for jobID.
func (b *BleveHistory) DeleteJob(ctx context.Context, jobID string) error {
	tq := bleve.NewTermQuery(jobID)
	tq.SetField("job_id")
	for {
		req := bleve.NewSearchRequest(tq)
		req.Size = deletePageSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to find answers of job %s: %w", jobID, err)
		}
		if len(results.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete answers of job %s: %w", jobID, err)
		}
	}
}

// DocCount returns the number of indexed answers.
func (b *BleveHistory) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveHistory) Close() error {
	return b.index.Close()
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func floatField(fields map[string]interface{}, name string) float64 {
	if v, ok := fields[name].(float64); ok {
		return v
	}
	return 0
}
