package usecases

import (
	"context"

	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

// ProfileJanitor cleans duplicate client entries out of the proxy config.
type ProfileJanitor interface {
	Dedupe(ctx context.Context) (int, error)
}

// MaintainProxyUseCase runs periodic config hygiene. Duplicates appear when
// the config is edited by hand between cycles; they shadow each other on the
// proxy side and break profile removal by UUID.
type MaintainProxyUseCase struct {
	janitor ProfileJanitor
	logger  logger.Interface
}

func NewMaintainProxyUseCase(janitor ProfileJanitor, log logger.Interface) *MaintainProxyUseCase {
	return &MaintainProxyUseCase{
		janitor: janitor,
		logger:  log,
	}
}

func (uc *MaintainProxyUseCase) Execute(ctx context.Context) (int, error) {
	cleaned, err := uc.janitor.Dedupe(ctx)
	if err != nil {
		uc.logger.Errorw("proxy config cleanup failed", "error", err)
		return 0, err
	}
	return cleaned, nil
}
