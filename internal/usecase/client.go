package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/logan/usecasehub/internal/restclient"
	"github.com/logan/usecasehub/internal/workflow"
)

// Client talks to the backend's /use-cases resource. Every mutation is
// checked locally first; a check failure means no request was sent.
type Client struct {
	rc *restclient.Client
}

// NewClient creates a use-case client.
func NewClient(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Get fetches one use case.
func (c *Client) Get(ctx context.Context, id int) (*UseCase, error) {
	var uc UseCase
	if err := c.rc.Do(ctx, http.MethodGet, fmt.Sprintf("/use-cases/%d", id), nil, &uc); err != nil {
		return nil, fmt.Errorf("get use case %d: %w", id, err)
	}
	return &uc, nil
}

// List fetches a page of use cases matching f.
func (c *Client) List(ctx context.Context, f Filter) (*ListResponse, error) {
	q := url.Values{}
	if f.CompanyID > 0 {
		q.Set("company_id", strconv.Itoa(f.CompanyID))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	path := "/use-cases/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListResponse
	if err := c.rc.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list use cases: %w", err)
	}
	return &resp, nil
}

// Update applies patch to current. A status in the patch must be a legal
// transition from current.Status.
func (c *Client) Update(ctx context.Context, current *UseCase, patch Patch) (*UseCase, error) {
	if err := patch.Validate(current.Status); err != nil {
		return nil, err
	}
	var uc UseCase
	if err := c.rc.Do(ctx, http.MethodPatch, fmt.Sprintf("/use-cases/%d", current.ID), patch, &uc); err != nil {
		return nil, fmt.Errorf("update use case %d: %w", current.ID, err)
	}
	return &uc, nil
}

// ChangeStatus moves current to the given status.
func (c *Client) ChangeStatus(ctx context.Context, current *UseCase, to workflow.Status) (*UseCase, error) {
	return c.Update(ctx, current, Patch{Status: &to})
}

// Archive archives a completed use case.
func (c *Client) Archive(ctx context.Context, current *UseCase) error {
	if err := workflow.Validate(current.Status, workflow.StatusArchived); err != nil {
		return err
	}
	if err := c.rc.Do(ctx, http.MethodDelete, fmt.Sprintf("/use-cases/%d", current.ID), nil, nil); err != nil {
		return fmt.Errorf("archive use case %d: %w", current.ID, err)
	}
	return nil
}

// Restore un-archives an archived use case. It comes back as new.
func (c *Client) Restore(ctx context.Context, current *UseCase) (*UseCase, error) {
	if _, err := workflow.ValidateRestore(current.Status); err != nil {
		return nil, err
	}
	var uc UseCase
	if err := c.rc.Do(ctx, http.MethodPost, fmt.Sprintf("/use-cases/%d/restore", current.ID), nil, &uc); err != nil {
		return nil, fmt.Errorf("restore use case %d: %w", current.ID, err)
	}
	return &uc, nil
}
