package server

import (
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp handles POST /api/auth/signup and its role-specific variants. A
// non-empty role fixes the account role; otherwise the body may ask for
// "user" or "vendor".
// @Summary Register an account
// @Description Create a user or vendor account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string,role=string} true "Signup request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) SignUp(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signUpRequest
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}

		in := service.SignUpInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     role,
		}
		if role == "" {
			in.Role = models.Role(req.Role)
		}

		result, err := s.accounts.SignUp(c.UserContext(), in)
		if err != nil {
			return s.respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	}
}

// SignIn handles POST /api/auth/signin and its role-specific variants.
// @Summary Sign in
// @Description Authenticate with email and password and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/signin [post]
func (s *Server) SignIn(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signInRequest
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}

		result, err := s.accounts.SignIn(c.UserContext(), service.SignInInput{
			Email:    req.Email,
			Password: req.Password,
			Role:     role,
		})
		if err != nil {
			return s.respond(c, err)
		}
		return c.JSON(result)
	}
}

// SignOut handles POST /api/auth/signout. Tokens are stateless, so only
// all=true has an effect: it revokes every session of the caller.
// @Summary Sign out
// @Tags auth
// @Produce json
// @Param all query bool false "Revoke every session"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/signout [post]
func (s *Server) SignOut(c *fiber.Ctx) error {
	var req struct {
		All bool `json:"all"`
	}
	if len(c.Body()) > 0 {
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}
	}
	all := req.All
	if v := queryBool(c, "all"); v != nil {
		all = *v
	}

	if err := s.accounts.SignOut(c.UserContext(), currentAccount(c), all); err != nil {
		return s.respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// Me handles GET /api/me
// @Summary Current account
// @Tags auth
// @Produce json
// @Success 200 {object} object{account=models.Account,features=object}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	acc := currentAccount(c)
	return c.JSON(fiber.Map{
		"account":  acc,
		"features": s.featureFlags.Snapshot(acc.ID),
	})
}
