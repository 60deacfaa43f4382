package api

import (
	"net/http"
	"strconv"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/labstack/echo/v4"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) createUser(c echo.Context) error {
	var body createUserRequest
	if err := c.Bind(&body); err != nil {
		return errMalformedBody
	}
	if body.Role == "" {
		body.Role = string(goAccounts.RoleUser)
	}
	id, err := accounts(c).CreateUser(c.Request().Context(), body.Username, body.Password, body.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, idResponse{ID: id.String()})
}

// listUsers reads limit, offset, sort_by and order from the query string.
func (s *Server) listUsers(c echo.Context) error {
	params := goAccounts.ListParams{
		SortField: c.QueryParam("sort_by"),
		SortOrder: goAccounts.SortOrder(c.QueryParam("order")),
	}
	var err error
	if params.Limit, err = intParam(c, "limit"); err != nil {
		return err
	}
	if params.Offset, err = intParam(c, "offset"); err != nil {
		return err
	}

	page, err := accounts(c).ListUsers(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}

func (s *Server) setUserPassword(c echo.Context) error {
	var body setPasswordRequest
	if err := c.Bind(&body); err != nil {
		return errMalformedBody
	}
	if err := accounts(c).SetUserPassword(c.Request().Context(), c.Param("id"), body.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) grantAdmin(c echo.Context) error {
	return noContent(c, accounts(c).GrantAdmin(c.Request().Context(), c.Param("id")))
}

func (s *Server) revokeAdmin(c echo.Context) error {
	return noContent(c, accounts(c).RevokeAdmin(c.Request().Context(), c.Param("id")))
}

func (s *Server) activateUser(c echo.Context) error {
	return noContent(c, accounts(c).ActivateUser(c.Request().Context(), c.Param("id")))
}

func (s *Server) deactivateUser(c echo.Context) error {
	return noContent(c, accounts(c).DeactivateUser(c.Request().Context(), c.Param("id")))
}

func noContent(c echo.Context, err error) error {
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
