// This file implements the object store: registration, filtered queries,
// the conditional lifecycle transitions (claim, devolve, release), the
// interested-applicant queue, and classification counts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civicworks/reclaim/pkg/types"
)

// Compile-time interface check: objectStore must implement ObjectStore.
var _ types.ObjectStore = (*objectStore)(nil)

// objectStore implements types.ObjectStore over the backend's database.
type objectStore struct {
	backend *Backend
}

// objectColumns is the column list every object query selects, in
// hydrateObject's scan order.
const objectColumns = `object_id, category, type, fields, found_date, status,
    institution, applicant, devolution_code, solicited_at, devolved_at,
    created_at, updated_at`

// CreateObject persists a new object with a minted UUID v7 id.
func (os *objectStore) CreateObject(ctx context.Context, obj types.Object) (types.Object, error) {
	if err := obj.Validate(); err != nil {
		return types.Object{}, err
	}

	now := time.Now().UTC()
	obj.ID = generateUUID()
	obj.Status = types.StatusAvailable
	obj.CreatedAt = now
	obj.UpdatedAt = now

	fields, err := json.Marshal(obj.Fields)
	if err != nil {
		return types.Object{}, fmt.Errorf("encoding fields: %w", err)
	}

	_, err = os.backend.db.ExecContext(ctx,
		`INSERT INTO objects (object_id, category, type, fields, found_date,
		     status, institution, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.ID, obj.Category, obj.Type, string(fields), formatTime(obj.FoundDate),
		int(obj.Status), obj.Institution, formatTime(now), formatTime(now),
	)
	if err != nil {
		return types.Object{}, fmt.Errorf("creating object: %w", err)
	}

	return obj, nil
}

// GetObject retrieves an object by id, interested queue included.
func (os *objectStore) GetObject(ctx context.Context, id string) (types.Object, error) {
	if id == "" {
		return types.Object{}, types.ErrInvalidID
	}

	row := os.backend.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+" FROM objects WHERE object_id = ?", id,
	)
	obj, err := hydrateObject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Object{}, types.ErrObjectNotFound
		}
		return types.Object{}, fmt.Errorf("getting object %s: %w", id, err)
	}

	if err := os.loadInterested(ctx, &obj); err != nil {
		return types.Object{}, fmt.Errorf("loading interested queue for %s: %w", id, err)
	}
	return obj, nil
}

// FindObjects queries objects matching the filter, newest first.
func (os *objectStore) FindObjects(ctx context.Context, filter types.ObjectFilter) ([]types.Object, error) {
	query := "SELECT " + objectColumns + " FROM objects"
	var conditions []string
	var args []any

	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	if !filter.FoundDateFrom.IsZero() {
		conditions = append(conditions, "found_date >= ?")
		args = append(args, formatTime(filter.FoundDateFrom))
	}
	if filter.Institution != "" {
		conditions = append(conditions, "institution = ?")
		args = append(args, filter.Institution)
	}
	if filter.Applicant != "" {
		conditions = append(conditions, "applicant = ?")
		args = append(args, filter.Applicant)
	}
	if filter.DevolutionCode != "" {
		conditions = append(conditions, "devolution_code = ?")
		args = append(args, filter.DevolutionCode)
	}
	if filter.Interested != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM interested WHERE interested.object_id = objects.object_id AND interested.applicant_id = ?)")
		args = append(args, filter.Interested)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, int(*filter.Status))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := os.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding objects: %w", err)
	}
	defer rows.Close()

	var objects []types.Object
	for rows.Next() {
		obj, err := hydrateObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range objects {
		if err := os.loadInterested(ctx, &objects[i]); err != nil {
			return nil, fmt.Errorf("loading interested queue: %w", err)
		}
	}
	return objects, nil
}

// SearchObjects narrows FindObjects results by text relevance of the
// query against each object's field values, most relevant first.
// Objects with no overlapping token are excluded.
func (os *objectStore) SearchObjects(ctx context.Context, filter types.ObjectFilter, text string) ([]types.Object, error) {
	objects, err := os.FindObjects(ctx, filter)
	if err != nil {
		return nil, err
	}

	ranked := make([]scored[types.Object], 0, len(objects))
	for _, obj := range objects {
		score := relevance(obj.SearchText(), text)
		if score > 0 {
			ranked = append(ranked, scored[types.Object]{value: obj, score: score})
		}
	}
	return sortByScore(ranked), nil
}

// ClaimObject applies a solicitation. The WHERE clause re-checks the
// precondition at commit: the object must not be devolved and must
// carry no live claim (no applicant, or a claim solicited before
// expiredBefore). Guards the race where another solicitation or
// devolution committed between the caller's check and this write.
func (os *objectStore) ClaimObject(ctx context.Context, id string, claim types.Claim, expiredBefore time.Time) (int64, error) {
	if id == "" {
		return 0, types.ErrInvalidID
	}

	res, err := os.backend.db.ExecContext(ctx,
		`UPDATE objects
		 SET status = ?, applicant = ?, devolution_code = ?, solicited_at = ?, updated_at = ?
		 WHERE object_id = ? AND status != ?
		   AND (applicant IS NULL OR applicant = '' OR solicited_at < ?)`,
		int(types.StatusSolicited), claim.Applicant, claim.DevolutionCode,
		formatTime(claim.SolicitedAt), formatTime(time.Now().UTC()),
		id, int(types.StatusDevolved), formatTime(expiredBefore),
	)
	if err != nil {
		return 0, fmt.Errorf("claiming object: %w", err)
	}
	return res.RowsAffected()
}

// DevolveObject marks the object devolved and retires the claim bundle.
// Only applies while the object is still SOLICITED.
func (os *objectStore) DevolveObject(ctx context.Context, id string, at time.Time) (int64, error) {
	if id == "" {
		return 0, types.ErrInvalidID
	}

	res, err := os.backend.db.ExecContext(ctx,
		`UPDATE objects
		 SET status = ?, devolved_at = ?,
		     applicant = NULL, devolution_code = NULL, solicited_at = NULL,
		     updated_at = ?
		 WHERE object_id = ? AND status = ?`,
		int(types.StatusDevolved), formatTime(at), formatTime(time.Now().UTC()),
		id, int(types.StatusSolicited),
	)
	if err != nil {
		return 0, fmt.Errorf("devolving object: %w", err)
	}
	return res.RowsAffected()
}

// ReleaseObject clears the claim of the SOLICITED object carrying the
// devolution code, authorized by the requester being its institution or
// its applicant. The select and the clear run in one transaction so the
// returned pre-image, queue included, is the state the clear applied to.
func (os *objectStore) ReleaseObject(ctx context.Context, requesterID, devolutionCode string) (*types.Object, error) {
	if requesterID == "" || devolutionCode == "" {
		return nil, types.ErrInvalidID
	}

	tx, err := os.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+objectColumns+` FROM objects
		 WHERE devolution_code = ? AND status = ? AND (institution = ? OR applicant = ?)`,
		devolutionCode, int(types.StatusSolicited), requesterID, requesterID,
	)
	obj, err := hydrateObject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("finding solicited object: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE objects
		 SET status = ?, applicant = NULL, devolution_code = NULL, solicited_at = NULL, updated_at = ?
		 WHERE object_id = ? AND devolution_code = ? AND status = ?`,
		int(types.StatusAvailable), formatTime(time.Now().UTC()),
		obj.ID, devolutionCode, int(types.StatusSolicited),
	)
	if err != nil {
		return nil, fmt.Errorf("releasing object: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT applicant_id, email, queued_at FROM interested
		 WHERE object_id = ? ORDER BY queued_at, rowid`,
		obj.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading interested queue: %w", err)
	}
	obj.InterestedApplicants, err = scanInterested(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing release: %w", err)
	}
	return &obj, nil
}

// AppendInterested queues a backup applicant. The INSERT only applies
// while the object is SOLICITED by somebody else and the applicant is
// not already queued, which makes repeat registrations no-ops the caller
// observes as zero affected rows.
func (os *objectStore) AppendInterested(ctx context.Context, objectID string, entry types.Interested) (int64, error) {
	if objectID == "" || entry.ApplicantID == "" {
		return 0, types.ErrInvalidID
	}

	res, err := os.backend.db.ExecContext(ctx,
		`INSERT INTO interested (object_id, applicant_id, email, queued_at)
		 SELECT ?, ?, ?, ?
		 WHERE EXISTS (
		     SELECT 1 FROM objects
		     WHERE object_id = ? AND status = ? AND applicant IS NOT NULL AND applicant != ?
		 )
		 AND NOT EXISTS (
		     SELECT 1 FROM interested WHERE object_id = ? AND applicant_id = ?
		 )`,
		objectID, entry.ApplicantID, entry.Email, formatTime(entry.QueuedAt),
		objectID, int(types.StatusSolicited), entry.ApplicantID,
		objectID, entry.ApplicantID,
	)
	if err != nil {
		return 0, fmt.Errorf("appending interested applicant: %w", err)
	}
	return res.RowsAffected()
}

// RemoveInterested pulls the applicant's entry from the object's queue.
func (os *objectStore) RemoveInterested(ctx context.Context, objectID, applicantID string) (int64, error) {
	if objectID == "" || applicantID == "" {
		return 0, types.ErrInvalidID
	}

	res, err := os.backend.db.ExecContext(ctx,
		"DELETE FROM interested WHERE object_id = ? AND applicant_id = ?",
		objectID, applicantID,
	)
	if err != nil {
		return 0, fmt.Errorf("removing interested applicant: %w", err)
	}
	return res.RowsAffected()
}

// UpdateObjectData rewrites the descriptive fields of an object owned by
// the institution. Rejected once the object is DEVOLVED.
func (os *objectStore) UpdateObjectData(ctx context.Context, institutionID string, obj types.Object) (*types.Object, error) {
	if obj.ID == "" || institutionID == "" {
		return nil, types.ErrInvalidID
	}

	fields, err := json.Marshal(obj.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}

	res, err := os.backend.db.ExecContext(ctx,
		`UPDATE objects
		 SET category = ?, type = ?, fields = ?, found_date = ?, updated_at = ?
		 WHERE object_id = ? AND institution = ? AND status != ?`,
		obj.Category, obj.Type, string(fields), formatTime(obj.FoundDate),
		formatTime(time.Now().UTC()),
		obj.ID, institutionID, int(types.StatusDevolved),
	)
	if err != nil {
		return nil, fmt.Errorf("updating object: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	updated, err := os.GetObject(ctx, obj.ID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteObject removes an AVAILABLE object owned by the institution,
// cascading to its interested queue.
func (os *objectStore) DeleteObject(ctx context.Context, institutionID, objectID string) (int64, error) {
	if objectID == "" || institutionID == "" {
		return 0, types.ErrInvalidID
	}

	tx, err := os.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM objects WHERE object_id = ? AND institution = ? AND status = ?",
		objectID, institutionID, int(types.StatusAvailable),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting object: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM interested WHERE object_id = ?", objectID,
		); err != nil {
			return 0, fmt.Errorf("deleting interested queue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing object deletion: %w", err)
	}
	return affected, nil
}

// CountByCategory counts objects in a category.
func (os *objectStore) CountByCategory(ctx context.Context, category string) (int64, error) {
	return os.count(ctx, "SELECT COUNT(*) FROM objects WHERE category = ?", category)
}

// CountByType counts objects of a type within a category.
func (os *objectStore) CountByType(ctx context.Context, category, typ string) (int64, error) {
	return os.count(ctx, "SELECT COUNT(*) FROM objects WHERE category = ? AND type = ?", category, typ)
}

// CountByField counts objects in a category carrying a field with the
// given name.
func (os *objectStore) CountByField(ctx context.Context, category, fieldName string) (int64, error) {
	return os.count(ctx,
		`SELECT COUNT(*) FROM objects
		 WHERE category = ? AND EXISTS (
		     SELECT 1 FROM json_each(objects.fields)
		     WHERE json_extract(json_each.value, '$.name') = ?
		 )`,
		category, fieldName,
	)
}

func (os *objectStore) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := os.backend.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	return n, nil
}

// loadInterested fills the object's interested queue in FIFO order.
func (os *objectStore) loadInterested(ctx context.Context, obj *types.Object) error {
	rows, err := os.backend.db.QueryContext(ctx,
		`SELECT applicant_id, email, queued_at FROM interested
		 WHERE object_id = ? ORDER BY queued_at, rowid`,
		obj.ID,
	)
	if err != nil {
		return err
	}
	obj.InterestedApplicants, err = scanInterested(rows)
	return err
}

// scanInterested drains and closes an interested-queue result set.
func scanInterested(rows *sql.Rows) ([]types.Interested, error) {
	defer rows.Close()

	var queue []types.Interested
	for rows.Next() {
		var entry types.Interested
		var queuedAt string
		if err := rows.Scan(&entry.ApplicantID, &entry.Email, &queuedAt); err != nil {
			return nil, fmt.Errorf("scanning interested applicant: %w", err)
		}
		entry.QueuedAt = parseTime(queuedAt)
		queue = append(queue, entry)
	}
	return queue, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for hydration.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateObject scans one objects row into a types.Object, rebuilding
// the claim bundle from its nullable columns.
func hydrateObject(row rowScanner) (types.Object, error) {
	var obj types.Object
	var status int
	var fields, foundDate, createdAt, updatedAt string
	var applicant, devolutionCode, solicitedAt, devolvedAt sql.NullString

	err := row.Scan(&obj.ID, &obj.Category, &obj.Type, &fields, &foundDate,
		&status, &obj.Institution, &applicant, &devolutionCode, &solicitedAt,
		&devolvedAt, &createdAt, &updatedAt)
	if err != nil {
		return types.Object{}, err
	}

	if err := json.Unmarshal([]byte(fields), &obj.Fields); err != nil {
		return types.Object{}, fmt.Errorf("decoding fields: %w", err)
	}

	obj.Status = types.ObjectStatus(status)
	obj.FoundDate = parseTime(foundDate)
	obj.CreatedAt = parseTime(createdAt)
	obj.UpdatedAt = parseTime(updatedAt)

	if applicant.Valid && applicant.String != "" {
		obj.Claim = &types.Claim{
			Applicant:      applicant.String,
			DevolutionCode: devolutionCode.String,
			SolicitedAt:    parseTime(solicitedAt.String),
		}
	}
	if devolvedAt.Valid && devolvedAt.String != "" {
		obj.DevolvedAt = parseTime(devolvedAt.String)
	}

	return obj, nil
}

// timeLayout is RFC 3339 with a fixed-width fraction so stored
// timestamps compare lexicographically in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders a timestamp for storage. The zero time is stored as
// an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime is the inverse of formatTime; malformed or empty values
// hydrate to the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
