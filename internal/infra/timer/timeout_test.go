package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func TestWithTimeoutWrapsDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockService(ctrl)
	mockSvc.EXPECT().
		InstallOrReplace(gomock.Any(), "n", time.Minute, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ time.Duration, _ Payload) error {
			<-ctx.Done()
			return ctx.Err()
		})

	svc := WithTimeout(mockSvc, 20*time.Millisecond)
	err := svc.InstallOrReplace(context.Background(), "n", time.Minute, Payload{})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error: got %v, want ErrTimeout", err)
	}
	if !IsRetryable(err) {
		t.Error("timeout should be retryable")
	}
}

func TestWithTimeoutPassesThroughOtherErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("boom")
	mockSvc := NewMockService(ctrl)
	mockSvc.EXPECT().Cancel(gomock.Any(), "n").Return(boom)
	mockSvc.EXPECT().Claim(gomock.Any(), "n", "tok").Return(true, nil)

	svc := WithTimeout(mockSvc, time.Second)

	err := svc.Cancel(context.Background(), "n")
	if !errors.Is(err, boom) {
		t.Errorf("Cancel: got %v, want %v", err, boom)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("non-timeout error should not match ErrTimeout")
	}

	ok, err := svc.Claim(context.Background(), "n", "tok")
	if err != nil || !ok {
		t.Errorf("Claim: got (%v, %v), want (true, nil)", ok, err)
	}
}

func TestWithTimeoutZeroReturnsNext(t *testing.T) {
	local := NewLocalService()
	if got := WithTimeout(local, 0); got != Service(local) {
		t.Error("zero timeout should return the wrapped service")
	}
}
