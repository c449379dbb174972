package vendors

import (
	"fmt"
	"strings"
	"sync"

	"github.com/meilisearch/meilisearch-go"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/log"
)

var (
	meiliClient     *MeiliClient
	meiliClientOnce sync.Once
	meiliLogger     = log.GetLogger("Meilisearch")
)

// MeiliClient wraps the Meilisearch index holding release notes. A nil
// client is valid and degrades every operation to a no-op.
type MeiliClient struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
}

// releaseDocument is the indexed shape of a release
type releaseDocument struct {
	ReleaseID string `json:"releaseId"`
	UserID    string `json:"userId,omitempty"`
	Filename  string `json:"filename"`
	Notes     string `json:"notes"`
	CreatedAt int64  `json:"createdAt"`
}

// MeiliSearchOptions holds search options
type MeiliSearchOptions struct {
	Limit  int
	Offset int
	UserID string
}

// MeiliSearchResult represents a search result
type MeiliSearchResult struct {
	Hits               []MeiliHit
	EstimatedTotalHits int
	Limit              int
	Offset             int
	Query              string
}

// MeiliHit represents a single search hit
type MeiliHit struct {
	ReleaseID string
	Filename  string
	Notes     string
	CreatedAt int64
	Formatted map[string]string
}

// GetMeiliClient returns the singleton Meilisearch client, nil if unconfigured
func GetMeiliClient() *MeiliClient {
	meiliClientOnce.Do(func() {
		cfg := config.Get()
		if cfg.MeiliHost == "" {
			meiliLogger.Warn().Msg("MEILI_HOST not configured, search disabled")
			return
		}

		client := meilisearch.New(cfg.MeiliHost, meilisearch.WithAPIKey(cfg.MeiliAPIKey))
		if _, err := client.Health(); err != nil {
			meiliLogger.Error().Err(err).Msg("failed to connect to Meilisearch")
			return
		}

		index := client.Index(cfg.MeiliIndex)

		// userId must be filterable so search can be scoped per user
		if _, err := index.UpdateFilterableAttributes(&[]string{"userId"}); err != nil {
			meiliLogger.Warn().Err(err).Msg("failed to update filterable attributes")
		}

		meiliClient = &MeiliClient{client: client, index: index}
		meiliLogger.Info().Str("host", cfg.MeiliHost).Str("index", cfg.MeiliIndex).Msg("Meilisearch initialized")
	})

	return meiliClient
}

// Search queries a user's indexed release notes
func (m *MeiliClient) Search(query string, opts MeiliSearchOptions) (*MeiliSearchResult, error) {
	result := &MeiliSearchResult{Query: query, Limit: opts.Limit, Offset: opts.Offset}
	if m == nil {
		return result, nil
	}

	req := &meilisearch.SearchRequest{
		Limit:                 int64(opts.Limit),
		Offset:                int64(opts.Offset),
		AttributesToHighlight: []string{"notes", "filename"},
		AttributesToCrop:      []string{"notes"},
		CropLength:            200,
	}
	if opts.UserID != "" {
		req.Filter = fmt.Sprintf(`userId = "%s"`, escapeFilter(opts.UserID))
	}

	resp, err := m.index.Search(query, req)
	if err != nil {
		return nil, err
	}

	result.EstimatedTotalHits = int(resp.EstimatedTotalHits)
	for _, raw := range resp.Hits {
		if doc, ok := raw.(map[string]interface{}); ok {
			result.Hits = append(result.Hits, parseHit(doc))
		}
	}
	return result, nil
}

func parseHit(doc map[string]interface{}) MeiliHit {
	hit := MeiliHit{
		ReleaseID: getString(doc, "releaseId"),
		Filename:  getString(doc, "filename"),
		Notes:     getString(doc, "notes"),
	}
	if ts, ok := doc["createdAt"].(float64); ok {
		hit.CreatedAt = int64(ts)
	}
	if formatted, ok := doc["_formatted"].(map[string]interface{}); ok {
		hit.Formatted = make(map[string]string, len(formatted))
		for k, v := range formatted {
			if s, ok := v.(string); ok {
				hit.Formatted[k] = s
			}
		}
	}
	return hit
}

// IndexRelease adds a release to the search index
func (m *MeiliClient) IndexRelease(r *db.Release) error {
	if m == nil {
		return nil
	}

	doc := releaseDocument{
		ReleaseID: r.ID,
		Filename:  r.Filename,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
	}
	if r.UserID != nil {
		doc.UserID = *r.UserID
	}

	_, err := m.index.AddDocuments([]releaseDocument{doc}, "releaseId")
	return err
}

// DeleteRelease removes a release from the search index
func (m *MeiliClient) DeleteRelease(releaseID string) error {
	if m == nil {
		return nil
	}
	_, err := m.index.DeleteDocument(releaseID)
	return err
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeFilter(value string) string {
	return filterEscaper.Replace(value)
}

func getString(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}
