package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gigmarket/messaging/internal/domain"
)

// Directory reads profiles from the account database.
type Directory struct {
	DB *sqlx.DB
}

func NewDirectory(db *sql.DB) *Directory {
	return &Directory{DB: sqlx.NewDb(db, "postgres")}
}

// variant is one role specific profile row; Exists is false when the
// LEFT JOIN found nothing.
type variant struct {
	Exists bool
	Image  sql.NullString
}

type profileRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	IsClient        bool           `db:"is_client"`
	ClientImage     sql.NullString `db:"client_image"`
	IsFreelancer    bool           `db:"is_freelancer"`
	FreelancerImage sql.NullString `db:"freelancer_image"`
}

func (d *Directory) Resolve(ctx context.Context, userID string) (domain.Profile, error) {
	var row profileRow
	err := d.DB.GetContext(ctx, &row, `
		SELECT u.id, u.name,
		       c.user_id IS NOT NULL AS is_client, c.profile_image AS client_image,
		       f.user_id IS NOT NULL AS is_freelancer, f.profile_image AS freelancer_image
		FROM users u
		LEFT JOIN client_profiles c ON c.user_id = u.id
		LEFT JOIN freelancer_profiles f ON f.user_id = u.id
		WHERE u.id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return resolve(row.ID, row.Name,
		variant{Exists: row.IsClient, Image: row.ClientImage},
		variant{Exists: row.IsFreelancer, Image: row.FreelancerImage},
	), nil
}

// resolve picks the role profile once: client, then freelancer, then none.
func resolve(id, name string, client, freelancer variant) domain.Profile {
	p := domain.Profile{ID: id, Name: name, Kind: domain.ProfileNone}
	switch {
	case client.Exists:
		p.Kind = domain.ProfileClient
		p.ProfileImage = image(client.Image)
	case freelancer.Exists:
		p.Kind = domain.ProfileFreelancer
		p.ProfileImage = image(freelancer.Image)
	}
	return p
}

func image(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}
