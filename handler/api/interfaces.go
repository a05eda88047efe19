package api

import (
	"context"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

// CargoService is what the handlers need from service.CargoService.
type CargoService interface {
	List(ctx context.Context, query string, field cargo.Field) ([]models.CargoRecord, error)
	Get(ctx context.Context, id string) (models.CargoRecord, error)
	Create(ctx context.Context, userID string, record models.CargoRecord) (models.CargoRecord, error)
	Update(ctx context.Context, id string, record models.CargoRecord) (models.CargoRecord, error)
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (func(), error)
	Ping(ctx context.Context) error
}
