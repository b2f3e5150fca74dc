package upstream

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
)

type sessionInfo struct {
	name      string
	startDate string
	sortOrder int
}

var (
	reSessionRange  = regexp.MustCompile(`(?i)weeks?\s*(\d+)\s*(?:[-–]|to)+\s*(\d+)`)
	reSessionSingle = []*regexp.Regexp{
		regexp.MustCompile(`(?i)week\s*(\d+)`),
		regexp.MustCompile(`(?i)wk\s*(\d+)`),
		regexp.MustCompile(`(?i)\((\d+)wk\)`),
		regexp.MustCompile(`(?i)session\s*(\d+)`),
	}
)

// EnrollmentRecords pulls the season's sessions, programs and attendees
// and normalizes them into enrollment records. Session descriptors run
// through the parser first; sessions whose names carry no usable week
// token fall back to date matching against the camp calendar.
func (c *Client) EnrollmentRecords(ctx context.Context, p *parser.Parser, cal models.SeasonCalendar) ([]models.EnrollmentRecord, error) {
	sessions, err := c.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	programs, err := c.Programs(ctx)
	if err != nil {
		return nil, err
	}
	attendees, err := c.Attendees(ctx, StatusBoth)
	if err != nil {
		return nil, err
	}

	c.logger.Info("season data fetched",
		zap.Int("sessions", len(sessions)),
		zap.Int("programs", len(programs)),
		zap.Int("attendees", len(attendees)))

	programNames := make(map[int64]string, len(programs))
	for _, prog := range programs {
		programNames[prog.ID] = prog.Name
	}

	sessionMap := make(map[int64]sessionInfo, len(sessions))
	for _, s := range sessions {
		sessionMap[s.ID] = sessionInfo{name: s.Name, startDate: s.StartDate, sortOrder: s.SortOrder}
	}
	// Program seasons can reference sessions the main endpoint omits.
	for _, prog := range programs {
		for _, ps := range prog.ProgramSeasons {
			if _, ok := sessionMap[ps.SessionID]; !ok && ps.SessionID != 0 {
				sessionMap[ps.SessionID] = sessionInfo{startDate: ps.StartDate}
			}
		}
	}

	var records []models.EnrollmentRecord
	for _, att := range attendees {
		for _, sps := range att.SessionProgramStatus {
			var status models.EnrollmentStatus
			switch sps.StatusID {
			case StatusEnrolled:
				status = models.EnrollmentStatusEnrolled
			case StatusApplied:
				status = models.EnrollmentStatusApplied
			default:
				continue
			}

			programName := p.Normalize(programNames[sps.ProgramID])
			if programName == "" {
				continue
			}

			session := sessionMap[sps.SessionID]
			enrolledAt := parseISODate(sps.EffectiveDate)

			weeks := sessionWeeks(session, cal)
			if len(weeks) == 0 {
				c.logger.Warn("session has no resolvable week",
					zap.Int64("session_id", sps.SessionID),
					zap.String("session_name", session.name),
					zap.String("program", programName))
				continue
			}

			for _, week := range weeks {
				rec, err := models.NewEnrollmentRecord(att.PersonID, programName, week, enrolledAt, status)
				if err != nil {
					c.logger.Warn("dropping invalid enrollment", zap.Error(err))
					continue
				}
				records = append(records, rec)
			}
		}
	}

	return records, nil
}

// sessionWeeks resolves a session to its covered weeks: name patterns
// first, then date-range matching with two days of slack, then the
// session sort order.
func sessionWeeks(s sessionInfo, cal models.SeasonCalendar) []int {
	lower := strings.ToLower(s.name)

	if strings.Contains(lower, "full session") {
		return []int{1, 2, 3, 4}
	}

	if m := reSessionRange.FindStringSubmatch(lower); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		var weeks []int
		for w := start; w <= end; w++ {
			if w >= models.MinWeek && w <= models.MaxWeek {
				weeks = append(weeks, w)
			}
		}
		return weeks
	}

	for _, re := range reSessionSingle {
		if m := re.FindStringSubmatch(lower); m != nil {
			w, _ := strconv.Atoi(m[1])
			if w >= models.MinWeek && w <= models.MaxWeek {
				return []int{w}
			}
		}
	}

	if start := parseISODate(s.startDate); !start.IsZero() {
		for _, cw := range cal.Weeks {
			if !start.Before(cw.Start) && !start.After(cw.End) {
				return []int{cw.Number}
			}
			if diff := start.Sub(cw.Start); diff >= -2*24*time.Hour && diff <= 2*24*time.Hour {
				return []int{cw.Number}
			}
		}
	}

	if s.sortOrder >= models.MinWeek && s.sortOrder <= models.MaxWeek {
		return []int{s.sortOrder}
	}

	return nil
}

// parseISODate reads the date part of an ISO timestamp, zero on failure.
func parseISODate(raw string) time.Time {
	if len(raw) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}
