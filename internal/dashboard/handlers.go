package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/gin-gonic/gin"
)

type scheduleRequest struct {
	Day     string `json:"day" form:"day" binding:"required"`
	Start   string `json:"start" form:"start" binding:"required"`
	End     string `json:"end" form:"end" binding:"required"`
	Enabled *bool  `json:"enabled" form:"enabled"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" form:"enabled" binding:"required"`
}

type alarmRequest struct {
	Time string `json:"time" form:"time" binding:"required"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.currentView(c))
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).View())
}

func (s *Server) handleRefresh(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Refresh(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (s *Server) handlePump(c *gin.Context) {
	state, ok := models.ParsePumpAction(c.Param("action"))
	if !ok {
		abortBadRequest(c, errors.New("pump action must be on or off"))
		return
	}

	sess := currentSession(c)
	if err := sess.SetPump(c.Request.Context(), state); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (s *Server) handleReadings(c *gin.Context) {
	readings := currentSession(c).Readings()
	c.JSON(http.StatusOK, gin.H{
		"readings": readings,
		"count":    len(readings),
		"capacity": constants.ReadingBufferCapacity,
	})
}

func (s *Server) handleListSchedules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schedules": currentSession(c).Schedules()})
}

func (s *Server) handleAddSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBind(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	entry, err := currentSession(c).AddSchedule(req.Day, req.Start, req.End, enabled)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleDeleteScheduleAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortBadRequest(c, errors.New("index must be an integer"))
		return
	}
	entry, err := currentSession(c).DeleteSchedule(index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeleteSchedule(c *gin.Context) {
	entry, err := currentSession(c).DeleteScheduleByID(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleToggleSchedule(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBind(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	entry, err := currentSession(c).SetScheduleEnabled(c.Param("id"), *req.Enabled)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleListAlarms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alarms": currentSession(c).Alarms()})
}

func (s *Server) handleAddAlarm(c *gin.Context) {
	var req alarmRequest
	if err := c.ShouldBind(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	alarm, err := currentSession(c).AddAlarm(req.Time)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alarm)
}

func (s *Server) handleDeleteAlarmAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortBadRequest(c, errors.New("index must be an integer"))
		return
	}
	alarm, err := currentSession(c).DeleteAlarm(index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alarm)
}

func (s *Server) handleDeleteAlarm(c *gin.Context) {
	alarm, err := currentSession(c).DeleteAlarmByID(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alarm)
}

func (s *Server) handleSystem(c *gin.Context) {
	c.JSON(http.StatusOK, s.systemStatus())
}

func (s *Server) systemStatus() models.SystemStatus {
	status := models.SystemStatus{
		Timestamp:        time.Now().UTC(),
		DeviceID:         s.options.DeviceID,
		Transport:        s.gateway.Kind(),
		GatewayConnected: s.gateway.Connected(),
		StorageEnabled:   s.history != nil,
		Sessions:         s.sessions.Count(),
		Metrics:          map[string]models.Metric{},
	}
	if s.metrics != nil {
		status.Metrics, _ = s.metrics.Latest()
	}
	return status
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		abortWithError(c, errStorageDisabled)
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	records, err := s.history.RecentReadings(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read history")
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"readings": records})
}

func (s *Server) handlePumpActions(c *gin.Context) {
	if s.history == nil {
		abortWithError(c, errStorageDisabled)
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	actions, err := s.history.PumpActions(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read pump actions")
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

// queryLimit reads the optional ?limit= parameter; 0 means the store default.
func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}
