// Package workloads persists workload records and their owner-scoped
// listings.
package workloads

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

const selectWorkload = `SELECT w.id, w.user_id, w.nama, w.type, w.deskripsi, w.status, w.tgl_diterima,
	w.fungsi, w.created_at, w.updated_at, u.nama AS user_nama, u.username
	FROM workloads w JOIN users u ON u.id = w.user_id`

type SQLRepository struct {
	db database.Querier
}

func NewSQLRepository(db database.Querier) *SQLRepository {
	return &SQLRepository{db: db}
}

var _ Repository = (*SQLRepository)(nil)

func (r *SQLRepository) Create(ctx context.Context, w *models.Workload) (*models.Workload, error) {
	status := w.Status
	if status == "" {
		status = models.StatusNew
	}

	res, err := r.db.Execute(ctx,
		`INSERT INTO workloads (user_id, nama, type, deskripsi, status, tgl_diterima, fungsi)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.UserID, w.Nama, w.Type, w.Deskripsi, string(status), dateArg(w.TglDiterima), w.Fungsi)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.GetByID(ctx, res.LastInsertID)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Workload, error) {
	w := &models.Workload{}
	found, err := r.db.GetOne(ctx, w, selectWorkload+` WHERE w.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return w, nil
}

// where renders the filter as a WHERE clause. Column names are fixed; every
// value is a placeholder argument.
func where(f models.WorkloadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != 0 {
		conds = append(conds, "w.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		conds = append(conds, "w.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		conds = append(conds, "w.type = ?")
		args = append(args, f.Type)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		conds = append(conds, "(w.nama LIKE ? OR w.deskripsi LIKE ? OR w.fungsi LIKE ?)")
		args = append(args, like, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SQLRepository) List(ctx context.Context, f models.WorkloadFilter) ([]models.Workload, int64, error) {
	clause, args := where(f)

	var total int64
	if _, err := r.db.GetOne(ctx, &total, `SELECT COUNT(*) FROM workloads w`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	items := []models.Workload{}
	query := selectWorkload + clause + ` ORDER BY w.created_at DESC, w.id DESC LIMIT ? OFFSET ?`
	if err := r.db.Query(ctx, &items, query, append(args, limit, (page-1)*limit)...); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return items, total, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, p models.WorkloadPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.UserID != nil {
		add("user_id", *p.UserID)
	}
	if p.Nama != nil {
		add("nama", *p.Nama)
	}
	if p.Type != nil {
		add("type", *p.Type)
	}
	if p.Deskripsi != nil {
		add("deskripsi", *p.Deskripsi)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.TglDiterima != nil {
		add("tgl_diterima", p.TglDiterima.String())
	}
	if p.Fungsi != nil {
		add("fungsi", *p.Fungsi)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	args = append(args, id)
	res, err := r.db.Execute(ctx, `UPDATE workloads SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Execute(ctx, `DELETE FROM workloads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.Execute(ctx, `DELETE FROM workloads WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected, nil
}

func (r *SQLRepository) Options(ctx context.Context, userID int64) (models.WorkloadOptions, error) {
	opts := models.WorkloadOptions{Types: []string{}, Statuses: []string{}, Fungsi: []string{}}
	clause, args := where(models.WorkloadFilter{UserID: userID})

	distinct := func(dest *[]string, col string) error {
		cond := " WHERE "
		if clause != "" {
			cond = clause + " AND "
		}
		q := `SELECT DISTINCT w.` + col + ` FROM workloads w` + cond +
			`w.` + col + ` IS NOT NULL AND w.` + col + ` <> '' ORDER BY w.` + col
		return r.db.Query(ctx, dest, q, args...)
	}

	if err := distinct(&opts.Types, "type"); err != nil {
		return opts, fmt.Errorf("db error: %w", err)
	}
	if err := distinct(&opts.Statuses, "status"); err != nil {
		return opts, fmt.Errorf("db error: %w", err)
	}
	if err := distinct(&opts.Fungsi, "fungsi"); err != nil {
		return opts, fmt.Errorf("db error: %w", err)
	}
	return opts, nil
}

func (r *SQLRepository) Statistics(ctx context.Context, userID int64) (models.WorkloadStatistics, error) {
	clause, args := where(models.WorkloadFilter{UserID: userID})

	stats := models.WorkloadStatistics{ByStatus: []models.StatusCount{}}
	err := r.db.Query(ctx, &stats.ByStatus,
		`SELECT w.status AS status, COUNT(*) AS count FROM workloads w`+clause+` GROUP BY w.status ORDER BY w.status`,
		args...)
	if err != nil {
		return stats, fmt.Errorf("db error: %w", err)
	}
	for _, c := range stats.ByStatus {
		stats.Total += c.Count
	}
	return stats, nil
}

func dateArg(d *models.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}
