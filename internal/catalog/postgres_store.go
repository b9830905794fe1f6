package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

// PostgresStore is the default Store implementation, backed by GORM.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and runs AutoMigrate for the catalog's three
// tables, done explicitly here rather than as a package-level side effect.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "connecting to catalog database")
	}
	if err := db.AutoMigrate(&Service{}, &Operation{}, &WSDLCacheEntry{}); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "migrating catalog schema")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Create(ctx context.Context, service *Service) error {
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	for i := range service.Operations {
		if service.Operations[i].ID == uuid.Nil {
			service.Operations[i].ID = uuid.New()
		}
		service.Operations[i].ServiceID = service.ID
	}
	err := s.db.WithContext(ctx).Create(service).Error
	if isUniqueViolation(err) {
		return errs.New(errs.NameConflict, "a service named %q already exists", service.Name)
	}
	if err != nil {
		return errs.Wrap(errs.Internal, err, "creating service %q", service.Name)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	var svc Service
	err := s.db.WithContext(ctx).Preload("Operations").First(&svc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.ServiceUnknown, "no service with id %s", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "loading service %s", id)
	}
	return &svc, nil
}

func (s *PostgresStore) GetByName(ctx context.Context, name string) (*Service, error) {
	var svc Service
	err := s.db.WithContext(ctx).Preload("Operations").First(&svc, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.ServiceUnknown, "no service named %q", name)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "loading service %q", name)
	}
	return &svc, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	var services []Service
	if err := s.db.WithContext(ctx).Preload("Operations").Find(&services).Error; err != nil {
		return nil, errs.Wrap(errs.Internal, err, "listing services")
	}
	summaries := make([]Summary, 0, len(services))
	for _, svc := range services {
		summaries = append(summaries, Summary{
			ID:                svc.ID,
			Name:              svc.Name,
			WSDLURL:           svc.WSDLURL,
			Description:       svc.Description,
			GatewayRegistered: svc.Registered,
			OperationsCount:   len(svc.Operations),
			CreatedAt:         svc.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Service{}, "id = ?", id)
		if res.Error != nil {
			return errs.Wrap(errs.Internal, res.Error, "deleting service %s", id)
		}
		if res.RowsAffected == 0 {
			return errs.New(errs.ServiceUnknown, "no service with id %s", id)
		}
		return nil
	})
}

func (s *PostgresStore) TryBeginRegistration(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&Service{}).
		Where("id = ? AND gateway_registered = ?", id, false).
		Update("gateway_registered", true)
	if res.Error != nil {
		return errs.Wrap(errs.Internal, res.Error, "beginning registration for %s", id)
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.AlreadyRegistered, "service %s is already registered or does not exist", id)
	}
	return nil
}

func (s *PostgresStore) MarkRegistered(ctx context.Context, id uuid.UUID, binding GatewayBinding, toolIDsByOperation map[string]string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Service{}).Where("id = ?", id).Updates(map[string]interface{}{
			"gateway_registered":    binding.Registered,
			"gateway_server_uuid":   binding.ServerUUID,
			"gateway_mcp_endpoint":  binding.MCPEndpoint,
			"gateway_registered_at": binding.RegisteredAt,
		}).Error; err != nil {
			return errs.Wrap(errs.Internal, err, "persisting gateway binding for %s", id)
		}
		for opName, toolID := range toolIDsByOperation {
			toolID := toolID
			if err := tx.Model(&Operation{}).
				Where("service_id = ? AND name = ?", id, opName).
				Update("gateway_tool_id", &toolID).Error; err != nil {
				return errs.Wrap(errs.Internal, err, "persisting gateway tool id for operation %s", opName)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ClearRegistration(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Service{}).Where("id = ?", id).Updates(map[string]interface{}{
			"gateway_registered":    false,
			"gateway_server_uuid":   nil,
			"gateway_mcp_endpoint":  nil,
			"gateway_registered_at": nil,
		}).Error; err != nil {
			return errs.Wrap(errs.Internal, err, "clearing gateway binding for %s", id)
		}
		if err := tx.Model(&Operation{}).Where("service_id = ?", id).Update("gateway_tool_id", nil).Error; err != nil {
			return errs.Wrap(errs.Internal, err, "clearing gateway tool ids for %s", id)
		}
		return nil
	})
}

func (s *PostgresStore) TouchWSDLAccess(ctx context.Context, wsdlURL, serviceName string, at time.Time) error {
	entry := WSDLCacheEntry{WSDLURL: wsdlURL, ServiceName: serviceName, LastAccessed: at}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wsdl_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"service_name", "last_accessed"}),
		}).
		Create(&entry).Error
	if err != nil {
		logger.Warnf("failed to update WSDL cache access time for %s: %v", wsdlURL, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// postgres driver reports unique violations with SQLSTATE 23505; gorm
	// surfaces it as a generic error whose message carries the code, so a
	// substring check keeps this independent of the specific driver error type.
	msg := err.Error()
	for _, marker := range []string{"23505", "duplicate key", "UNIQUE constraint"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
