// internal/providers/contextsource/postgres.go
package contextsource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	apperrors "travel-planner/internal/common/errors"
)

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Postgres ranks documents with full-text search over title and content.
type Postgres struct {
	db           *sql.DB
	query        string
	limit        int
	snippetChars int
}

func NewPostgres(db *sql.DB, table string, limit, snippetChars int) (*Postgres, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	q := fmt.Sprintf(`SELECT title, city, content
FROM %s
WHERE city ILIKE $1
  AND to_tsvector('simple', title || ' ' || content) @@ plainto_tsquery('simple', $2)
ORDER BY ts_rank(to_tsvector('simple', title || ' ' || content), plainto_tsquery('simple', $2)) DESC
LIMIT $3`, table)
	return &Postgres{db: db, query: q, limit: limit, snippetChars: snippetChars}, nil
}

func (p *Postgres) Retrieve(ctx context.Context, city string, preferences []string) (string, error) {
	rows, err := p.db.QueryContext(ctx, p.query, city, Query(city, preferences), p.limit)
	if err != nil {
		return "", apperrors.NewContextUnavailableError("postgres", err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var d Doc
		if err := rows.Scan(&d.Title, &d.City, &d.Content); err != nil {
			return "", apperrors.NewContextUnavailableError("postgres", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return "", apperrors.NewContextUnavailableError("postgres", err)
	}
	return Render(docs, p.snippetChars), nil
}
