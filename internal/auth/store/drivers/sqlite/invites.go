package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/store"
)

type inviteCodesRepo struct {
	q dbtx
}

const inviteColumns = `id, code_hash, role, max_uses, current_uses, expires_at, created_by, active, created_at, updated_at`

func (r *inviteCodesRepo) CreateInviteCode(ctx context.Context, c domain.InviteCode) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invite_codes (`+inviteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CodeHash, string(c.Role), c.MaxUses, c.CurrentUses,
		mapOptionalTime(c.ExpiresAt), c.CreatedBy, c.Active, c.CreatedAt.UTC(), now,
	)
	return mapConstraint(err)
}

func (r *inviteCodesRepo) GetInviteCodeByHash(ctx context.Context, hash string) (domain.InviteCode, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invite_codes WHERE code_hash = ?`, hash)
	return scanInviteCode(row)
}

func (r *inviteCodesRepo) ListInviteCodes(ctx context.Context) ([]domain.InviteCode, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invite_codes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []domain.InviteCode
	for rows.Next() {
		c, err := scanInviteCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// ConsumeInviteCode performs the increment and, when the limit is reached,
// the deactivation in one guarded UPDATE. The WHERE clause re-checks all
// three usability conditions so two concurrent consumers of a nearly
// exhausted code cannot both succeed; sqlite serialises writers, so the
// rows-affected count is authoritative.
func (r *inviteCodesRepo) ConsumeInviteCode(ctx context.Context, hash string, now time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invite_codes
		 SET current_uses = current_uses + 1,
		     active = CASE WHEN current_uses + 1 >= max_uses THEN 0 ELSE active END,
		     updated_at = ?
		 WHERE code_hash = ?
		   AND active = 1
		   AND (expires_at IS NULL OR expires_at > ?)
		   AND current_uses < max_uses`,
		now.UTC(), hash, now.UTC(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *inviteCodesRepo) DeactivateInviteCode(ctx context.Context, hash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invite_codes SET active = 0, updated_at = ? WHERE code_hash = ?`,
		time.Now().UTC(), hash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *inviteCodesRepo) DeactivateExpiredInviteCodes(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE invite_codes
		 SET active = 0, updated_at = ?
		 WHERE active = 1 AND expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC(), now.UTC())
	return err
}

func scanInviteCode(row rowScanner) (domain.InviteCode, error) {
	var (
		c         domain.InviteCode
		role      string
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.CodeHash, &role, &c.MaxUses, &c.CurrentUses,
		&expiresAt, &c.CreatedBy, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.InviteCode{}, mapNotFound(err)
	}
	c.Role = domain.Role(role)
	c.ExpiresAt = mapNullTimePtr(expiresAt)
	return c, nil
}
