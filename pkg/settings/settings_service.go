package settings

import (
	"context"
	"sort"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/internal/utils"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
)

type (
	SettingsService interface {
		GetSettings(ctx context.Context) (domain.SettingsResponse, error)
		UpdateSettings(ctx context.Context, req domain.UpdateSettingsRequest) (domain.SettingsResponse, error)
	}

	settingsService struct {
		settingsRepository SettingsRepository
		publisher          changefeed.Publisher
	}
)

func NewSettingsService(settingsRepository SettingsRepository, publisher changefeed.Publisher) SettingsService {
	if publisher == nil {
		publisher = changefeed.Discard{}
	}
	return &settingsService{
		settingsRepository: settingsRepository,
		publisher:          publisher,
	}
}

func (s *settingsService) GetSettings(ctx context.Context) (domain.SettingsResponse, error) {
	settings, err := s.settingsRepository.GetOrCreate(ctx)
	if err != nil {
		return domain.SettingsResponse{}, err
	}
	return toResponse(settings), nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, req domain.UpdateSettingsRequest) (domain.SettingsResponse, error) {
	settings, err := s.settingsRepository.GetOrCreate(ctx)
	if err != nil {
		return domain.SettingsResponse{}, err
	}

	if req.NotifyDaysBefore != nil {
		days, err := NormalizeDays(*req.NotifyDaysBefore)
		if err != nil {
			return domain.SettingsResponse{}, err
		}
		settings.NotifyDaysBefore = days
	}
	if req.NotifyTime != nil {
		if !utils.ValidClockTime(*req.NotifyTime) {
			return domain.SettingsResponse{}, domain.ErrInvalidNotifyTime
		}
		settings.NotifyTime = *req.NotifyTime
	}
	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}

	if err := s.settingsRepository.Save(ctx, settings); err != nil {
		return domain.SettingsResponse{}, err
	}

	s.publisher.Publish(changefeed.TableSettings)
	return toResponse(settings), nil
}

// NormalizeDays turns the threshold list into a sorted set of positive days.
func NormalizeDays(days []int) ([]int, error) {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d <= 0 {
			return nil, domain.ErrInvalidNotifyDays
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out, nil
}

func toResponse(settings *entities.Settings) domain.SettingsResponse {
	days := settings.NotifyDaysBefore
	if days == nil {
		days = []int{}
	}
	return domain.SettingsResponse{
		NotifyDaysBefore: days,
		NotifyTime:       settings.NotifyTime,
		Enabled:          settings.Enabled,
	}
}
