package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenstack/lumen-rag/internal/cache"
	"github.com/lumenstack/lumen-rag/internal/models"
)

// WeaviateRepo provides semantic search over the two corpus classes and
// answers schema-capability questions for the optimizer.
type WeaviateRepo struct {
	endpoint       string
	apiKey         string
	forumClass     string
	messagingClass string
	httpClient     *http.Client
	cache          cache.Provider
	schemaTTL      time.Duration
}

// NewWeaviateRepo constructs a Weaviate client.
func NewWeaviateRepo(endpoint, apiKey, forumClass, messagingClass string, timeout time.Duration, cacheProvider cache.Provider, schemaTTL time.Duration) *WeaviateRepo {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if forumClass == "" {
		forumClass = "ForumPost"
	}
	if messagingClass == "" {
		messagingClass = "CustomerMessage"
	}
	if schemaTTL < 0 {
		schemaTTL = 0
	}
	return &WeaviateRepo{
		endpoint:       strings.TrimRight(endpoint, "/"),
		apiKey:         apiKey,
		forumClass:     forumClass,
		messagingClass: messagingClass,
		httpClient:     &http.Client{Timeout: timeout},
		cache:          cacheProvider,
		schemaTTL:      schemaTTL,
	}
}

func (r *WeaviateRepo) className(corpus models.Corpus) string {
	if corpus == models.CorpusMessaging {
		return r.messagingClass
	}
	return r.forumClass
}

// Search issues one nearText query against the corpus class, constrained by
// the time window and metadata filters, returning at most topK passages.
func (r *WeaviateRepo) Search(ctx context.Context, corpus models.Corpus, query string, window models.TimeWindow, filters models.MetadataFilters, topK int) ([]models.RetrievedPassage, error) {
	if r == nil {
		return nil, fmt.Errorf("weaviate repo not initialised")
	}
	if r.endpoint == "" {
		return nil, fmt.Errorf("weaviate endpoint not configured")
	}
	if topK <= 0 {
		topK = 8
	}

	class := r.className(corpus)
	gql := buildSearchQuery(class, query, window, filters, topK)

	payload, err := json.Marshal(map[string]interface{}{"query": gql})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/v1/graphql", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weaviate search failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var response struct {
		Data struct {
			Get map[string]json.RawMessage `json:"Get"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode weaviate response: %w", err)
	}

	raw, ok := response.Data.Get[class]
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	var hits []weaviateHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode weaviate hits: %w", err)
	}

	passages := make([]models.RetrievedPassage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, models.RetrievedPassage{
			Corpus:    corpus,
			ID:        hit.Additional.ID,
			Text:      hit.Text,
			Score:     hit.Additional.Certainty,
			Timestamp: hit.CreatedAt,
			Metadata: models.PassageMetadata{
				Author:    hit.Author,
				Contact:   hit.Contact,
				URL:       hit.URL,
				Sentiment: hit.Sentiment,
				Variant:   hit.Variant,
				Tags:      hit.Tags,
			},
		})
	}
	return passages, nil
}

type weaviateHit struct {
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	Contact    string    `json:"contact"`
	URL        string    `json:"url"`
	Sentiment  string    `json:"sentiment"`
	Variant    string    `json:"variant"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	Additional struct {
		ID        string  `json:"id"`
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

func buildSearchQuery(class, query string, window models.TimeWindow, filters models.MetadataFilters, topK int) string {
	var sb strings.Builder
	sb.WriteString("{\n  Get {\n    ")
	sb.WriteString(class)
	sb.WriteString("(\n")
	fmt.Fprintf(&sb, "      limit: %d\n", topK)
	fmt.Fprintf(&sb, "      nearText: {concepts: [%s]}\n", quoteGraphQL(query))

	if operands := buildWhereOperands(window, filters); len(operands) > 0 {
		sb.WriteString("      where: {operator: And, operands: [")
		sb.WriteString(strings.Join(operands, ", "))
		sb.WriteString("]}\n")
	}

	sb.WriteString("    ) {\n")
	sb.WriteString("      text\n      author\n      contact\n      url\n      sentiment\n      variant\n      tags\n      createdAt\n")
	sb.WriteString("      _additional { id certainty }\n")
	sb.WriteString("    }\n  }\n}")
	return sb.String()
}

func buildWhereOperands(window models.TimeWindow, filters models.MetadataFilters) []string {
	operands := make([]string, 0, 5)
	if window.Start != nil {
		operands = append(operands, fmt.Sprintf(
			`{path: ["createdAt"], operator: GreaterThanEqual, valueDate: %s}`,
			quoteGraphQL(window.Start.UTC().Format(time.RFC3339))))
	}
	if window.End != nil {
		operands = append(operands, fmt.Sprintf(
			`{path: ["createdAt"], operator: LessThanEqual, valueDate: %s}`,
			quoteGraphQL(window.End.UTC().Format(time.RFC3339))))
	}
	if len(filters.Variants) > 0 {
		operands = append(operands, containsAnyOperand("variant", filters.Variants))
	}
	if len(filters.Sentiments) > 0 {
		operands = append(operands, containsAnyOperand("sentiment", filters.Sentiments))
	}
	if len(filters.Tags) > 0 {
		operands = append(operands, containsAnyOperand("tags", filters.Tags))
	}
	return operands
}

func containsAnyOperand(field string, values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		quoted = append(quoted, quoteGraphQL(v))
	}
	return fmt.Sprintf(`{path: ["%s"], operator: ContainsAny, valueText: [%s]}`,
		field, strings.Join(quoted, ", "))
}

// quoteGraphQL escapes a string literal; JSON string escaping is valid GraphQL.
func quoteGraphQL(s string) string {
	return strconv.Quote(s)
}

// HasField reports whether the corpus class carries the named property.
// Results are cached since the schema is static for the life of a deployment.
func (r *WeaviateRepo) HasField(ctx context.Context, corpus models.Corpus, field string) (bool, error) {
	if r == nil || r.endpoint == "" {
		return false, fmt.Errorf("weaviate repo not configured")
	}

	class := r.className(corpus)
	cacheKey := fmt.Sprintf("schema:%s:%s", class, field)
	if r.schemaTTL > 0 {
		if data, err := r.cache.Get(ctx, cacheKey); err == nil {
			return string(data) == "true", nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/v1/schema/"+class, nil)
	if err != nil {
		return false, err
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("weaviate schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("weaviate schema failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var schema struct {
		Properties []struct {
			Name string `json:"name"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		return false, fmt.Errorf("decode schema: %w", err)
	}

	found := false
	for _, prop := range schema.Properties {
		if strings.EqualFold(prop.Name, field) {
			found = true
			break
		}
	}

	if r.schemaTTL > 0 {
		_ = r.cache.Set(ctx, cacheKey, []byte(strconv.FormatBool(found)), r.schemaTTL)
	}
	return found, nil
}
