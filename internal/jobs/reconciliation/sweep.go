// Package reconciliation compares local ativo members against the payment
// provider's view and reports divergence. The sweep is strictly read-only on
// member state: divergence always goes to a human.
package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marcelomar21/bets-estatistica/internal/alerter"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/observability/metrics"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	"go.uber.org/zap"
)

type Sweep struct {
	members  memberdomain.Service
	provider payment.Provider
	alerter  alerter.Alerter
	metrics  *metrics.Metrics
	logger   *zap.Logger

	callDelay time.Duration
}

type desync struct {
	member         memberdomain.Member
	providerStatus string
}

func New(
	members memberdomain.Service,
	provider payment.Provider,
	adminAlerter alerter.Alerter,
	m *metrics.Metrics,
	cfg config.Config,
	logger *zap.Logger,
) *Sweep {
	return &Sweep{
		members:   members,
		provider:  provider,
		alerter:   adminAlerter,
		metrics:   m,
		logger:    logger.Named("jobs.reconciliation"),
		callDelay: cfg.ReconcileCallDelay,
	}
}

func (s *Sweep) RunOnce(ctx context.Context) error {
	members, err := s.members.ListByStatus(ctx, memberdomain.StatusAtivo, memberdomain.DefaultGroup())
	if err != nil {
		return fmt.Errorf("list ativo members: %w", err)
	}

	var desyncs []desync
	var checked, callFailures int
	failureCodes := map[string]int{}

	for _, member := range members {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if member.ProviderSubscriptionID == nil || *member.ProviderSubscriptionID == "" {
			continue
		}
		if checked > 0 {
			// Fixed delay between provider calls keeps the sweep under the
			// provider's rate limits.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.callDelay):
			}
		}
		checked++

		sub, err := s.provider.GetSubscription(ctx, *member.ProviderSubscriptionID)
		switch {
		case payment.IsNotFound(err):
			desyncs = append(desyncs, desync{member: member, providerStatus: "not_found"})
		case err != nil:
			callFailures++
			failureCodes[payment.ErrorCode(err)]++
			s.logger.Warn("reconciliation.provider_call_failed",
				zap.Int64("member_id", int64(member.ID)),
				zap.Error(err),
			)
		case isDesynchronized(sub.Status):
			desyncs = append(desyncs, desync{member: member, providerStatus: sub.Status})
		}
	}

	if checked > 0 && callFailures*2 > checked {
		s.alerter.Alert(ctx, outageAlert(checked, callFailures, failureCodes))
	}
	if len(desyncs) > 0 {
		for range desyncs {
			s.metrics.IncDesyncReported()
		}
		s.alerter.Alert(ctx, desyncAlert(desyncs))
	}

	s.logger.Info("reconciliation.sweep_done",
		zap.Int("members", len(members)),
		zap.Int("checked", checked),
		zap.Int("desyncs", len(desyncs)),
		zap.Int("call_failures", callFailures),
	)
	return nil
}

// isDesynchronized reports whether a provider status contradicts a local
// ativo member.
func isDesynchronized(providerStatus string) bool {
	switch providerStatus {
	case payment.SubscriptionStatusCancelled,
		payment.SubscriptionStatusPaused,
		payment.SubscriptionStatusPending:
		return true
	default:
		return false
	}
}

func desyncAlert(desyncs []desync) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconciliação encontrou %d membro(s) dessincronizado(s):\n", len(desyncs))
	for _, d := range desyncs {
		identity := "sem identificação"
		if d.member.Email != nil {
			identity = *d.member.Email
		} else if d.member.TelegramID != nil {
			identity = fmt.Sprintf("telegram %d", *d.member.TelegramID)
		}
		fmt.Fprintf(&b, "- Membro %d (%s): local ativo, provedor %s. Sugestão: %s\n",
			d.member.ID, identity, d.providerStatus, suggestedAction(d.providerStatus))
	}
	return b.String()
}

func suggestedAction(providerStatus string) string {
	switch providerStatus {
	case "not_found":
		return "verificar se a assinatura foi migrada ou excluída no provedor"
	case payment.SubscriptionStatusCancelled:
		return "confirmar cancelamento e remover o membro manualmente"
	case payment.SubscriptionStatusPaused:
		return "contatar o membro sobre a assinatura pausada"
	default:
		return "verificar o status da cobrança no provedor"
	}
}

func outageAlert(checked, failures int, codes map[string]int) string {
	type codeCount struct {
		code  string
		count int
	}
	counts := make([]codeCount, 0, len(codes))
	for code, count := range codes {
		counts = append(counts, codeCount{code, count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	if len(counts) > 3 {
		counts = counts[:3]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CRÍTICO: reconciliação com %d falha(s) em %d chamada(s) ao provedor de pagamento.\n", failures, checked)
	b.WriteString("Erros mais frequentes:")
	for _, c := range counts {
		fmt.Fprintf(&b, " %s (%d)", c.code, c.count)
	}
	return b.String()
}
