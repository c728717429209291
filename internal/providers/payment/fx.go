package payment

import (
	"fmt"

	"github.com/marcelomar21/bets-estatistica/internal/config"
	"go.uber.org/fx"
)

func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.PaymentProvider {
	case "mercadopago":
		return NewMercadoPagoClient(cfg.MercadoPagoAccessToken), nil
	case "cakto":
		return NewCaktoClient(cfg.CaktoAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
	}
}

var Module = fx.Module("providers.payment",
	fx.Provide(NewProvider),
)
