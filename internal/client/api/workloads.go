package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/workloadtracker/internal/client/models"
)

// Me returns the logged-in account.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.Do(ctx, http.MethodGet, "/api/auth/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListWorkloads(ctx context.Context, q models.WorkloadQuery) (*models.WorkloadList, error) {
	path := "/api/workload"
	if enc := q.Values().Encode(); enc != "" {
		path += "?" + enc
	}

	var list models.WorkloadList
	if err := c.Do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetWorkload(ctx context.Context, id int64) (*models.Workload, error) {
	var w models.Workload
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/workload/%d", id), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
