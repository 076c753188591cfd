package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/reportdash/internal/auth"
	"github.com/reportdash/internal/dispatch"
	"github.com/reportdash/internal/models"
	"github.com/reportdash/internal/recipient"
	"github.com/reportdash/internal/schedule"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	db         *gorm.DB
	engine     *dispatch.Engine
	schedules  *schedule.Store
	recipients *recipient.Store
	router     *gin.Engine
}

func NewServer(db *gorm.DB, engine *dispatch.Engine) *Server {
	server := &Server{
		db:         db,
		engine:     engine,
		schedules:  schedule.NewStore(db),
		recipients: recipient.NewStore(db),
		router:     gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)
	s.router.POST("/api/v1/auth/register", s.register)

	// Trigger entrypoints stay open so an external cron can call them
	s.router.GET("/api/v1/reports/send", s.sendReport)
	s.router.POST("/api/v1/reminders/send", s.sendReminders)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware())

	// Schedule configuration endpoints
	api.GET("/report-schedule", s.getSchedule)
	api.PUT("/report-schedule", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.updateSchedule)

	// Recipient endpoints
	api.GET("/recipients", s.listRecipients)
	api.POST("/recipients", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.upsertRecipient)
	api.DELETE("/recipients/:email", auth.RequireRole(models.RoleAdmin), s.deleteRecipient)

	// Project endpoints
	projects := api.Group("/projects")
	{
		projects.GET("", s.listProjects)
		projects.GET("/:id", s.getProject)
		projects.POST("", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.createProject)
		projects.PUT("/:id", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.updateProject)
		projects.DELETE("/:id", auth.RequireRole(models.RoleAdmin), s.deleteProject)
	}

	// Audit trail
	api.GET("/report-history", s.listHistory)
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Dispatch handlers

func (s *Server) sendReport(c *gin.Context) {
	testEmails := splitEmails(c.Query("testEmail"))

	trigger := models.TriggerManual
	if c.Query("source") == "cron" {
		trigger = models.TriggerCron
	}

	result, err := s.engine.DispatchReport(testEmails, trigger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The reminder flow is evaluated on every invocation, report day or
	// not; its own gates decide whether anything goes out.
	reminders, err := s.engine.DispatchReminders()
	if err != nil {
		reminders = &dispatch.Result{Skipped: true, Reason: err.Error()}
	}

	resp := gin.H{
		"sent":      result.Sent,
		"failed":    result.Failed,
		"reminders": reminders,
	}
	if result.Skipped {
		resp["skipped"] = true
		resp["reason"] = result.Reason
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) sendReminders(c *gin.Context) {
	result, err := s.engine.DispatchReminders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Schedule handlers

func (s *Server) getSchedule(c *gin.Context) {
	cfg, err := s.schedules.GetOrCreate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) updateSchedule(c *gin.Context) {
	var req struct {
		Frequency           models.Frequency `json:"frequency" binding:"required"`
		DayOfWeek           string           `json:"day_of_week"`
		SendTime            string           `json:"time"`
		SendDate            string           `json:"send_date"`
		Enabled             bool             `json:"enabled"`
		PMReminderDay       string           `json:"pm_reminder_day"`
		PMFinalReminderDays int              `json:"pm_final_reminder_days"`
		PMStartWeeksBefore  int              `json:"pm_start_weeks_before"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.IsValidFrequency(req.Frequency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid frequency: %s", req.Frequency)})
		return
	}
	if req.Frequency == models.FrequencyWeekly {
		if _, err := schedule.ParseWeekday(req.DayOfWeek); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if _, _, err := schedule.ParseSendTime(req.SendTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SendDate != "" {
		if _, err := schedule.ParseDate(req.SendDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.PMReminderDay != "" {
		if _, err := schedule.ParseWeekday(req.PMReminderDay); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cfg, err := s.schedules.Upsert(&models.ReportSchedule{
		Frequency:           req.Frequency,
		DayOfWeek:           req.DayOfWeek,
		SendTime:            req.SendTime,
		SendDate:            req.SendDate,
		Enabled:             req.Enabled,
		PMReminderDay:       req.PMReminderDay,
		PMFinalReminderDays: req.PMFinalReminderDays,
		PMStartWeeksBefore:  req.PMStartWeeksBefore,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Recipient handlers

func (s *Server) listRecipients(c *gin.Context) {
	recipients, err := s.recipients.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recipients)
}

func (s *Server) upsertRecipient(c *gin.Context) {
	var in recipient.UpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.Contains(in.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	}

	rec, err := s.recipients.Upsert(in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteRecipient(c *gin.Context) {
	if err := s.recipients.Delete(c.Param("email")); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recipient deleted successfully"})
}

// Project handlers

func (s *Server) listProjects(c *gin.Context) {
	var projects []models.Project
	if err := s.db.Order("title").Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch projects"})
		return
	}

	plant := c.Query("plant")
	disciplines := splitList(c.Query("disciplines"))
	if plant == "" && len(disciplines) == 0 {
		c.JSON(http.StatusOK, projects)
		return
	}

	filtered := make([]models.Project, 0, len(projects))
	for i := range projects {
		if recipient.Matches(&projects[i], plant, disciplines) {
			filtered = append(filtered, projects[i])
		}
	}
	c.JSON(http.StatusOK, filtered)
}

func (s *Server) getProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var project models.Project
	if err := s.db.First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) createProject(c *gin.Context) {
	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if project.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project title is required"})
		return
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}

	if err := s.db.Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) updateProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var project models.Project
	if err := s.db.First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	var req struct {
		Title       string               `json:"title"`
		Plant       string               `json:"plant"`
		Disciplines []string             `json:"disciplines"`
		Status      models.ProjectStatus `json:"status"`
		Description string               `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project.Title = req.Title
	project.Plant = req.Plant
	project.Disciplines = req.Disciplines
	project.Status = req.Status
	project.Description = req.Description

	// Saving refreshes UpdatedAt, which is what marks the project as no
	// longer pending for the reminder engine.
	if err := s.db.Save(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) deleteProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	if err := s.db.Delete(&models.Project{}, uint(id)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}

// History handler

func (s *Server) listHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	var history []models.ReportHistory
	if err := s.db.Order("sent_at desc").Limit(limit).Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// Auth handlers

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("username = ?", loginReq.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	if err := s.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Helper functions

func splitEmails(raw string) []string {
	return splitList(raw)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
