package appointment

import (
	"context"
	"log/slog"
	"strings"
)

// Catalog is the admin-managed list of bookable services.
type Catalog struct {
	store  *Store
	logger *slog.Logger
}

func NewCatalog(store *Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, logger: logger}
}

// List returns services in insertion order. It never fails.
func (c *Catalog) List(ctx context.Context) []Service {
	return c.store.ListServices(ctx)
}

func (c *Catalog) Get(ctx context.Context, id string) (Service, bool) {
	for _, svc := range c.store.ListServices(ctx) {
		if svc.ID == id {
			return svc, true
		}
	}
	return Service{}, false
}

// NameOf resolves a service name for display, tolerating deleted services.
func NameOf(services []Service, id string) string {
	for _, svc := range services {
		if svc.ID == id {
			return svc.Name
		}
	}
	return UnknownServiceName
}

func normalizeService(svc Service) (Service, error) {
	svc.ID = strings.TrimSpace(svc.ID)
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.ID == "" {
		return Service{}, &ValidationError{Field: "id"}
	}
	if svc.Name == "" {
		return Service{}, &ValidationError{Field: "name"}
	}
	if svc.Status == "" {
		svc.Status = ServiceActive
	}
	if !svc.Status.Valid() {
		return Service{}, &ValidationError{Field: "status", Reason: "must be Active or Inactive"}
	}
	return svc, nil
}

func (c *Catalog) Create(ctx context.Context, svc Service) (Service, error) {
	svc, err := normalizeService(svc)
	if err != nil {
		return Service{}, err
	}
	created, err := c.store.CreateService(ctx, svc)
	if err != nil {
		c.logger.ErrorContext(ctx, "create service failed", slog.String("service_id", svc.ID), slog.Any("err", err))
		return Service{}, err
	}
	c.logger.InfoContext(ctx, "service created", slog.String("service_id", created.ID))
	return created, nil
}

// Update replaces a service in place. Unknown ids are ignored.
func (c *Catalog) Update(ctx context.Context, svc Service) error {
	svc, err := normalizeService(svc)
	if err != nil {
		return err
	}
	if err := c.store.UpdateService(ctx, svc); err != nil {
		c.logger.ErrorContext(ctx, "update service failed", slog.String("service_id", svc.ID), slog.Any("err", err))
		return err
	}
	return nil
}

// Delete removes a service. Appointments that reference it are kept.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: "id"}
	}
	if err := c.store.DeleteService(ctx, id); err != nil {
		c.logger.ErrorContext(ctx, "delete service failed", slog.String("service_id", id), slog.Any("err", err))
		return err
	}
	return nil
}
