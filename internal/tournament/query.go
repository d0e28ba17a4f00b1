package tournament

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/padmiss/cabd/internal/records"
)

const (
	historyPageSize  = 10
	historyMaxOffset = 100
)

// PlayerQuery selects a player by any combination of identifiers. At
// least one field should be set; an empty query matches every player
// and therefore resolves to no unique match.
type PlayerQuery struct {
	PlayerID string
	RfidUID  string
	Nickname string
}

// StepchartHistory bundles one step chart's metadata with the score
// documents from a player's history that reference it.
type StepchartHistory struct {
	Title           string
	Artist          string
	Groups          []string
	DifficultyLevel int
	StepData        string
	Scores          []map[string]any
}

// graphQuery posts a query document to the service's query endpoint and
// decodes the response body.
func (c *Client) graphQuery(ctx context.Context, query string) (map[string]any, error) {
	buf, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/graphiql", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	return out, nil
}

// encodeFilter serializes a filter to JSON and then encodes that JSON
// string as a quoted literal for embedding in the query text. The
// service parses the queryString argument as JSON a second time, so the
// double encoding is exactly what it expects.
func encodeFilter(filter map[string]any) (string, error) {
	inner, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("encoding filter: %w", err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return "", fmt.Errorf("encoding filter literal: %w", err)
	}
	return string(outer), nil
}

// docs digs the document list out of a query response for one entity
func docs(result map[string]any, entity string) []any {
	data, ok := result["data"].(map[string]any)
	if !ok {
		return nil
	}
	e, ok := data[entity].(map[string]any)
	if !ok {
		return nil
	}
	d, _ := e["docs"].([]any)
	return d
}

// GetPlayer resolves a player from whichever identifiers are set on the
// query. Exactly one matching document yields a hydrated Player; zero
// matches and ambiguous matches both yield nil without error.
func (c *Client) GetPlayer(ctx context.Context, q PlayerQuery) (*records.Player, error) {
	filter := map[string]any{}
	if q.PlayerID != "" {
		filter["_id"] = q.PlayerID
	}
	if q.RfidUID != "" {
		filter["rfidUid"] = q.RfidUID
	}
	if q.Nickname != "" {
		filter["nickname"] = q.Nickname
	}

	qs, err := encodeFilter(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`{
  Players (queryString: %s) {
    docs {
      _id
      nickname
      shortNickname
      avatarIconUrl
      rfidUid
      playerLevel
      playerExperiencePoints
      globalLadderRank
      globalLadderRating
      accuracy
      stamina
      totalSteps
      totalPlayTimeSeconds
      totalSongsPlayed
      metaData
    }
  }
}`, qs)

	result, err := c.graphQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	d := docs(result, "Players")
	if len(d) != 1 {
		return nil, nil
	}
	doc, ok := d[0].(map[string]any)
	if !ok {
		return nil, nil
	}

	return records.NewPlayer(doc)
}

// GetLastScore fetches the single most recent score for a player, or
// nil when the player has none. The document is returned raw, not
// hydrated into a record.
func (c *Client) GetLastScore(ctx context.Context, playerID string) (map[string]any, error) {
	qs, err := encodeFilter(map[string]any{"player": playerID})
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`{
  Scores (sort: "-playedAt", limit: 1, queryString: %s) {
    docs {
      scoreValue
      originalScore
      noteSkin
      playedAt
      modsTurn
      modsTransform
      modsOther {
        name
        value
      }
      speedMod {
        type
        value
      }
    }
  }
}`, qs)

	result, err := c.graphQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	d := docs(result, "Scores")
	if len(d) == 0 {
		return nil, nil
	}
	doc, _ := d[0].(map[string]any)
	return doc, nil
}

// GetScoreHistory pages through a player's scores, newest first, then
// looks up each referenced step chart and attaches the scores that
// belong to it. Pagination is deliberately bounded: pages of 10, and
// the loop stops once the offset passes 100, so at most ~110 documents
// are fetched regardless of the true total. The per-chart lookups are
// issued one by one; the service offers no batch query.
func (c *Client) GetScoreHistory(ctx context.Context, playerID string) (map[string]*StepchartHistory, error) {
	qs, err := encodeFilter(map[string]any{"player": playerID})
	if err != nil {
		return nil, err
	}

	var scores []map[string]any
	offset := 0
	for {
		query := fmt.Sprintf(`{
  Scores (limit: %d, sort: "-playedAt", offset: %d, queryString: %s) {
    totalDocs
    docs {
      _id
      playedAt
      scoreValue
      stepChart {
        _id
      }
    }
  }
}`, historyPageSize, offset, qs)

		result, err := c.graphQuery(ctx, query)
		if err != nil {
			return nil, err
		}

		page := docs(result, "Scores")
		for _, d := range page {
			if doc, ok := d.(map[string]any); ok {
				scores = append(scores, doc)
			}
		}

		c.logger.Debug("loading score history", "offset", offset, "fetched", len(scores))

		if len(page) < historyPageSize {
			break
		}
		offset += historyPageSize
		if offset > historyMaxOffset {
			break
		}
	}

	// Distinct charts, in the order their scores were first seen
	var chartIDs []string
	seen := map[string]bool{}
	for _, score := range scores {
		id := chartID(score)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		chartIDs = append(chartIDs, id)
	}

	history := make(map[string]*StepchartHistory, len(chartIDs))
	for i, id := range chartIDs {
		c.logger.Debug("populating stepchart data", "chart", i+1, "total", len(chartIDs))

		entry, err := c.getStepchart(ctx, id)
		if err != nil {
			return nil, err
		}

		for _, score := range scores {
			if chartID(score) == id {
				entry.Scores = append(entry.Scores, score)
			}
		}
		history[id] = entry
	}

	return history, nil
}

// getStepchart looks up one step chart's metadata by id
func (c *Client) getStepchart(ctx context.Context, id string) (*StepchartHistory, error) {
	idLit, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`{
  Stepchart (id: %s) {
    song {
      title
      artist
    }
    groups
    difficultyLevel
    stepData
  }
}`, idLit)

	result, err := c.graphQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	data, _ := result["data"].(map[string]any)
	chart, ok := data["Stepchart"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("stepchart %s: no data in response", id)
	}

	entry := &StepchartHistory{}
	if song, ok := chart["song"].(map[string]any); ok {
		entry.Title, _ = song["title"].(string)
		entry.Artist, _ = song["artist"].(string)
	}
	if groups, ok := chart["groups"].([]any); ok {
		for _, g := range groups {
			if s, ok := g.(string); ok {
				entry.Groups = append(entry.Groups, s)
			}
		}
	}
	if lvl, ok := chart["difficultyLevel"].(float64); ok {
		entry.DifficultyLevel = int(lvl)
	}
	entry.StepData, _ = chart["stepData"].(string)

	return entry, nil
}

// chartID extracts the referenced step chart id from a raw score doc
func chartID(score map[string]any) string {
	chart, ok := score["stepChart"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := chart["_id"].(string)
	return id
}
