package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobhub/identity/internal/api/metrics"
	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

type RegistrationHandler struct {
	workflow ports.RegistrationWorkflow
}

func NewRegistrationHandler(workflow ports.RegistrationWorkflow) *RegistrationHandler {
	return &RegistrationHandler{workflow: workflow}
}

// Submit files an employer registration for the authenticated user.
//
// @Summary      Request the employer role
// @Tags         employer-registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      companyRequest  true  "Company and contact details"
// @Success      201   {object}  domain.EmployerRegistration
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /employer-registrations [post]
func (h *RegistrationHandler) Submit(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req companyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reg, err := h.workflow.Submit(c.Request().Context(), p.SubjectID, toCompanyInfo(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reg)
}

// List returns registrations, newest first.
//
// @Summary      List employer registrations
// @Tags         employer-registrations
// @Produce      json
// @Security     BearerAuth
// @Param        status   query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        user_id  query     string  false  "Applicant user ID"
// @Success      200      {array}   domain.EmployerRegistration
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /employer-registrations [get]
func (h *RegistrationHandler) List(c echo.Context) error {
	filter := ports.RegistrationFilter{
		UserID: c.QueryParam("user_id"),
		Status: domain.RegistrationStatus(c.QueryParam("status")),
	}

	regs, err := h.workflow.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if regs == nil {
		regs = []domain.EmployerRegistration{}
	}
	return c.JSON(http.StatusOK, regs)
}

// Get returns a single registration.
//
// @Summary      Get an employer registration
// @Tags         employer-registrations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Registration ID"
// @Success      200  {object}  domain.EmployerRegistration
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /employer-registrations/{id} [get]
func (h *RegistrationHandler) Get(c echo.Context) error {
	reg, err := h.workflow.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reg)
}

// Decide approves or rejects a pending registration. Approval grants the
// target role in the same transaction.
//
// @Summary      Decide an employer registration
// @Tags         employer-registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Registration ID"
// @Param        body  body      decisionRequest  true  "Decision"
// @Success      200   {object}  decisionResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /employer-registrations/{id} [patch]
func (h *RegistrationHandler) Decide(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req decisionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	decision, err := toDecision(req)
	if err != nil {
		return err
	}

	res, err := h.workflow.Decide(c.Request().Context(), c.Param("id"), p.SubjectID, decision)
	if err != nil {
		return err
	}

	metrics.EmployerRegistrationDecisionsTotal.WithLabelValues(string(res.Registration.Status)).Inc()
	return c.JSON(http.StatusOK, decisionResponse{Registration: res.Registration, UserRole: res.UserRole})
}
