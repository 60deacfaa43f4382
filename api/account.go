package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type idResponse struct {
	ID string `json:"id"`
}

var errMalformedBody = echo.NewHTTPError(http.StatusBadRequest, "malformed request body")

func (s *Server) signUp(c echo.Context) error {
	var body credentialsRequest
	if err := c.Bind(&body); err != nil {
		return errMalformedBody
	}
	id, err := accounts(c).SignUp(c.Request().Context(), body.Username, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, idResponse{ID: id.String()})
}

func (s *Server) logIn(c echo.Context) error {
	var body credentialsRequest
	if err := c.Bind(&body); err != nil {
		return errMalformedBody
	}
	if err := accounts(c).LogIn(c.Request().Context(), body.Username, body.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) logOut(c echo.Context) error {
	if err := accounts(c).LogOut(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) changePassword(c echo.Context) error {
	var body changePasswordRequest
	if err := c.Bind(&body); err != nil {
		return errMalformedBody
	}
	if err := accounts(c).ChangePassword(c.Request().Context(), body.CurrentPassword, body.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) me(c echo.Context) error {
	u, err := accounts(c).CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
