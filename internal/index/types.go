package index

import (
	"encoding/json"
	"time"
)

// Clause is one leaf of the boolean query JSON handed to the engine.
type Clause map[string]interface{}

// MatchPhrase emits an exact-phrase clause on one field.
func MatchPhrase(field, value string, boost float64) Clause {
	return Clause{"match_phrase": map[string]interface{}{
		field: map[string]interface{}{"query": value, "boost": boost},
	}}
}

// Match emits a full-match clause on one field.
func Match(field, value string, boost float64) Clause {
	return Clause{"match": map[string]interface{}{
		field: map[string]interface{}{"query": value, "boost": boost},
	}}
}

// Prefix emits a prefix clause on one field.
func Prefix(field, value string, boost float64) Clause {
	return Clause{"prefix": map[string]interface{}{
		field: map[string]interface{}{"value": value, "boost": boost},
	}}
}

// Wildcard emits a contains-style wildcard clause on one field.
func Wildcard(field, value string, boost float64) Clause {
	return Clause{"wildcard": map[string]interface{}{
		field: map[string]interface{}{"value": "*" + value + "*", "boost": boost},
	}}
}

// Term emits an exact-value filter clause on one keyword field.
func Term(field, value string) Clause {
	return Clause{"term": map[string]interface{}{field: value}}
}

// MatchAll matches every document.
func MatchAll() Clause {
	return Clause{"match_all": map[string]interface{}{}}
}

// BoolQuery is the compiled structured query executed by the engine.
// Must clauses are mandatory filters; should clauses accumulate score with
// OR semantics subject to MinimumShouldMatch.
type BoolQuery struct {
	Must               []Clause
	Should             []Clause
	MinimumShouldMatch int
}

// Body renders the query as the engine's bool-query JSON.
func (q *BoolQuery) Body() map[string]interface{} {
	if len(q.Must) == 0 && len(q.Should) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	b := map[string]interface{}{}
	if len(q.Must) > 0 {
		b["must"] = q.Must
	}
	if len(q.Should) > 0 {
		b["should"] = q.Should
		b["minimum_should_match"] = q.MinimumShouldMatch
	}
	return map[string]interface{}{"bool": b}
}

// SortField is one element of the sort specification.
type SortField struct {
	Field string
	Desc  bool
}

// PageSource carries the stored fields of one indexed page.
type PageSource struct {
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	PageDescription string    `json:"page_description"`
	Category        string    `json:"category"`
	LastModified    time.Time `json:"last_modified"`
}

// Hit is one scored document returned by the engine.
type Hit struct {
	ID     string     `json:"_id"`
	Score  float64    `json:"_score"`
	Source PageSource `json:"_source"`
}

// SearchReply is the engine's answer to a candidate search.
type SearchReply struct {
	Total int64
	Hits  []Hit
}

// totalCount accepts both the bare-int and the {"value": n} encodings the
// engine may use for hit totals.
type totalCount int64

func (t *totalCount) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*t = totalCount(n)
		return nil
	}

	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = totalCount(obj.Value)
	return nil
}
