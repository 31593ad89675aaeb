package scheduler

import (
	"context"
	"time"

	repo "app/internal/repository"

	"github.com/sirupsen/logrus"
)

// 毎月リセット後の残り使用回数（消化実績に関係なく上書きする運用）
const MonthlyUsageLimit int64 = 100

// VoucherSweeper はクーポンの定期処理を回す。
//   - 期限切れの無効化: 1日1回
//   - usage_limitの一括リセット: 毎月1日
//
// 失敗はログに残して次回に任せる。リクエスト処理は一切ブロックしない。
type VoucherSweeper struct {
	vouchers repo.VoucherRepository
	log      *logrus.Logger
	interval time.Duration
	now      func() time.Time

	lastExpireDay  string // "2006-01-02"
	lastResetMonth string // "2006-01"
}

func NewVoucherSweeper(vouchers repo.VoucherRepository, log *logrus.Logger) *VoucherSweeper {
	return &VoucherSweeper{
		vouchers: vouchers,
		log:      log,
		interval: time.Hour,
		now:      time.Now,
	}
}

// Run はctxが閉じるまで回り続ける。goroutineで起動する想定。
func (s *VoucherSweeper) Run(ctx context.Context) {
	//起動直後に一度実行（再起動で当日分を取りこぼさないように）
	s.Tick(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick は必要ならsweepを実行する。日・月の境界判定だけここで持つ
func (s *VoucherSweeper) Tick(ctx context.Context) {
	now := s.now()

	day := now.Format("2006-01-02")
	if day != s.lastExpireDay {
		s.ExpireSweep(ctx, now)
		s.lastExpireDay = day
	}

	month := now.Format("2006-01")
	if now.Day() == 1 && month != s.lastResetMonth {
		s.MonthlyResetSweep(ctx)
		s.lastResetMonth = month
	}
}

// 期限切れでまだ有効なクーポンを無効化する
func (s *VoucherSweeper) ExpireSweep(ctx context.Context, now time.Time) {
	n, err := s.vouchers.DeactivateExpired(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("voucher expire sweep failed")
		return
	}
	s.log.WithField("deactivated", n).Info("voucher expire sweep done")
}

// 全クーポンのusage_limitを一律で上書きする
func (s *VoucherSweeper) MonthlyResetSweep(ctx context.Context) {
	n, err := s.vouchers.ResetUsageLimits(ctx, MonthlyUsageLimit)
	if err != nil {
		s.log.WithError(err).Error("voucher monthly reset sweep failed")
		return
	}
	s.log.WithField("reset", n).Info("voucher monthly reset sweep done")
}
