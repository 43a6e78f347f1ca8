package dashboard

import (
	"fmt"
	"html/template"
	"time"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/internal/schedule"
	"github.com/benmeehan/hydro-controller/internal/session"
	"github.com/gin-gonic/gin"
)

// recentRows is how many readings the page lists.
const recentRows = 10

type pageData struct {
	session.View
	Days   []string
	Recent []models.Reading
	System models.SystemStatus
}

func (s *Server) currentView(c *gin.Context) pageData {
	view := currentSession(c).View()
	return pageData{
		View:   view,
		Days:   schedule.Days,
		Recent: newestFirst(view.History, recentRows),
		System: s.systemStatus(),
	}
}

func newestFirst(readings []models.Reading, n int) []models.Reading {
	if n > len(readings) {
		n = len(readings)
	}
	out := make([]models.Reading, 0, n)
	for i := len(readings) - 1; i >= len(readings)-n; i-- {
		out = append(out, readings[i])
	}
	return out
}

var templateFuncs = template.FuncMap{
	"clock": func(t time.Time) string {
		return t.Local().Format("15:04:05")
	},
	"uptime": func(seconds *int64) string {
		if seconds == nil {
			return "n/a"
		}
		return (time.Duration(*seconds) * time.Second).String()
	},
	"signal": func(rssi *int) string {
		if rssi == nil {
			return "n/a"
		}
		return fmt.Sprintf("%d dBm", *rssi)
	},
	"metric": func(m models.Metric) string {
		if v, ok := m.Value.(float64); ok {
			return fmt.Sprintf("%.1f %s", v, m.Unit)
		}
		return fmt.Sprintf("%v %s", m.Value, m.Unit)
	},
}
