package presenter

import (
	"context"
	"errors"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

type multiPresenter []domain.Presenter

// Multi presents through every presenter and joins their failures.
func Multi(presenters ...domain.Presenter) domain.Presenter {
	if len(presenters) == 1 {
		return presenters[0]
	}
	return multiPresenter(presenters)
}

func (m multiPresenter) Present(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, p := range m {
		if err := p.Present(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
