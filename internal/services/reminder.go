package services

import (
	"fmt"
	"strings"

	"github.com/parttimestudent/backend/internal/config"
	"github.com/parttimestudent/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderService runs a daily job that logs a digest of projects whose
// deadlines are approaching or already missed.
type ReminderService struct {
	db             *gorm.DB
	reportService  *ReportService
	workdayService *WorkdayService
	config         *config.ReminderConfig
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
}

func NewReminderService(db *gorm.DB, reportService *ReportService, workdayService *WorkdayService, cfg *config.ReminderConfig) *ReminderService {
	return &ReminderService{
		db:             db,
		reportService:  reportService,
		workdayService: workdayService,
		config:         cfg,
	}
}

func (s *ReminderService) StartScheduler() {
	if s.config == nil || !s.config.Enabled {
		logger.Infof("deadline reminder disabled")
		return
	}

	s.cronScheduler = cron.New()

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 8 * * *"
	}

	entryID, err := s.cronScheduler.AddFunc(schedule, func() {
		s.RunOnce()
	})
	if err != nil {
		logger.Errorf("failed to schedule deadline reminder: %v", err)
		return
	}

	s.currentEntryID = entryID
	s.cronScheduler.Start()
	logger.Infof("deadline reminder scheduled (cron: %s)", schedule)
}

func (s *ReminderService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// RunOnce builds and records the digest immediately. The scheduler calls it
// daily; tests and the admin trigger endpoint call it directly.
func (s *ReminderService) RunOnce() {
	dueDays := s.config.DueDays
	if dueDays <= 0 {
		dueDays = DefaultDueSoonDays
	}

	dueSoon, err := s.reportService.DueSoon(dueDays)
	if err != nil {
		logger.Errorf("deadline reminder: due-soon query failed: %v", err)
		return
	}
	overdue, err := s.reportService.Overdue()
	if err != nil {
		logger.Errorf("deadline reminder: overdue query failed: %v", err)
		return
	}

	if len(dueSoon) == 0 && len(overdue) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d due within %d days, %d overdue", len(dueSoon), dueDays, len(overdue))

	region := s.config.Region
	if region == "" {
		region = "NONE"
	}
	for _, p := range dueSoon {
		remaining := s.workdayService.WorkingDaysUntil(today(), p.Deadline, region)
		fmt.Fprintf(&b, "; %s due %s (%d working days)", p.ProjectName, p.Deadline.Format(dateLayout), remaining)
	}
	for _, p := range overdue {
		fmt.Fprintf(&b, "; %s overdue since %s", p.ProjectName, p.Deadline.Format(dateLayout))
	}

	message := b.String()
	logger.Infof("deadline digest: %s", message)
	LogInfo("reminder", "deadline_digest", message, nil, "", "", map[string]interface{}{
		"due_soon": len(dueSoon),
		"overdue":  len(overdue),
	})
}
