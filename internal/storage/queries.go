package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pable/go-smash-coach/internal/model"
	"github.com/pable/go-smash-coach/internal/trend"
)

// AnalysisRow is the list view of a stored analysis.
type AnalysisRow struct {
	ID          string
	CreatedAt   time.Time
	P1Name      string
	P1Character string
	P2Name      string
	P2Character string
	Winner      model.PlayerSlot
	Duration    float64
	Overall     sql.NullFloat64
}

// SaveBundle stores the full bundle plus the flattened profile rows the trend
// queries read. Uses INSERT OR REPLACE for idempotency on re-analysis.
func (db *DB) SaveBundle(bundle *model.Bundle) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var overall interface{}
	if bundle.Profiles[0] != nil {
		overall = bundle.Profiles[0].Overall
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO analyses(id, created_at, p1_name, p1_character, p2_name, p2_character, winner, duration, overall, bundle)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bundle.ID, bundle.CreatedAt.Format(time.RFC3339),
		bundle.Players[0].Name, bundle.Players[0].Character,
		bundle.Players[1].Name, bundle.Players[1].Character,
		int(bundle.Stats.Winner), bundle.Stats.Duration, overall, string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO profiles(analysis_id, player, character, created_at, won, overall, metric, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for p := 0; p < 2; p++ {
		prof := bundle.Profiles[p]
		if prof == nil {
			continue
		}
		slot := model.PlayerSlot(p + 1)
		won := bundle.Stats.Winner == slot
		for id, m := range prof.Metrics {
			_, err = stmt.Exec(
				bundle.ID, int(slot), bundle.Players[p].Character,
				bundle.CreatedAt.Format(time.RFC3339), boolInt(won),
				prof.Overall, string(id), m.Score,
			)
			if err != nil {
				return fmt.Errorf("insert profile row %s/%s: %w", slot, id, err)
			}
		}
	}
	return tx.Commit()
}

// GetBundleByPrefix loads a stored bundle by any unique prefix of its id.
func (db *DB) GetBundleByPrefix(prefix string) (*model.Bundle, error) {
	rows, err := db.conn.Query("SELECT bundle FROM analyses WHERE id LIKE ? || '%' LIMIT 2", prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raws []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(raws) {
	case 0:
		return nil, fmt.Errorf("no analysis matching %q", prefix)
	case 1:
	default:
		return nil, fmt.Errorf("prefix %q is ambiguous", prefix)
	}

	var bundle model.Bundle
	if err := json.Unmarshal([]byte(raws[0]), &bundle); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return &bundle, nil
}

// ListAnalyses returns stored analyses, newest first.
func (db *DB) ListAnalyses() ([]AnalysisRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, created_at, p1_name, p1_character, p2_name, p2_character, winner, duration, overall
		FROM analyses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRow
	for rows.Next() {
		var r AnalysisRow
		var created string
		var winner int
		if err := rows.Scan(&r.ID, &created, &r.P1Name, &r.P1Character, &r.P2Name, &r.P2Character, &winner, &r.Duration, &r.Overall); err != nil {
			return nil, err
		}
		r.Winner = model.PlayerSlot(winner)
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes an analysis and its profile rows by id prefix.
func (db *DB) DeleteAnalysis(prefix string) error {
	bundle, err := db.GetBundleByPrefix(prefix)
	if err != nil {
		return err
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM profiles WHERE analysis_id = ?", bundle.ID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM analyses WHERE id = ?", bundle.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListProfiles returns the first player's stored score history for a
// character, oldest first. Satisfies the trend store interface.
func (db *DB) ListProfiles(ctx context.Context, character string) ([]trend.StoredProfile, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT analysis_id, created_at, won, overall, metric, score
		FROM profiles
		WHERE character = ? AND player = 1
		ORDER BY created_at ASC`, character)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trend.StoredProfile
	byID := map[string]int{}
	for rows.Next() {
		var id, created, metric string
		var won int
		var overall, score float64
		if err := rows.Scan(&id, &created, &won, &overall, &metric, &score); err != nil {
			return nil, err
		}
		idx, ok := byID[id]
		if !ok {
			sp := trend.StoredProfile{
				Won:     won != 0,
				Overall: overall,
				Metrics: map[model.MetricID]float64{},
			}
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				sp.CreatedAt = t
			}
			out = append(out, sp)
			idx = len(out) - 1
			byID[id] = idx
		}
		out[idx].Metrics[model.MetricID(metric)] = score
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
