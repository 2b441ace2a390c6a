package accounts

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mediaplatform/catalog-service/internal/storage"
	"github.com/mediaplatform/catalog-service/internal/types/accounts"
	"github.com/mediaplatform/catalog-service/internal/utils/jwt"
	"github.com/mediaplatform/catalog-service/internal/utils/password"
	"github.com/mediaplatform/catalog-service/internal/utils/response"
)

// SignUp handles account registration
// @Summary Register a new account
// @Description Register a new account with a unique email
// @Tags auth
// @Accept json
// @Produce json
// @Param account body accounts.SignUpRequest true "Account registration details"
// @Success 201 {object} map[string]int64 "Account created successfully"
// @Failure 400 {object} response.Response "Bad request or duplicate email"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /auth/signup [post]
func SignUp(storageSvc storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signupReq accounts.SignUpRequest

		err := json.NewDecoder(r.Body).Decode(&signupReq)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(signupReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		hashedPassword, err := password.HashPassword(signupReq.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		accountID, err := storageSvc.CreateAccount(r.Context(), signupReq.Email, hashedPassword)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateEmail) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("email already exists")))
				return
			}
			slog.Error("Failed to create account", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create account")))
			return
		}
		slog.Info("Account created", slog.Int64("user_id", accountID))

		response.WriteJSON(w, http.StatusCreated, map[string]int64{
			"user_id": accountID,
		})
	}
}

// Login handles account authentication
// @Summary Authenticate an account
// @Description Authenticate an account and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param account body accounts.LoginRequest true "Account login details"
// @Success 200 {object} accounts.TokenResponse "Bearer token issued"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /auth/login [post]
func Login(storageSvc storage.Storage, JWTSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var loginReq accounts.LoginRequest

		err := json.NewDecoder(r.Body).Decode(&loginReq)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(loginReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Unknown email and wrong password must be indistinguishable to
		// the caller, so both paths return the same response.
		accountID, hashedPassword, err := storageSvc.GetAccountByEmail(r.Context(), loginReq.Email)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				slog.Error("Failed to look up account", slog.String("error", err.Error()))
			}
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		correctPassword := password.CheckPasswordHash(loginReq.Password, hashedPassword)
		if !correctPassword {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		token, err := jwt.CreateToken(accountID, JWTSecret, jwt.SessionTokenTTL)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, accounts.TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
		})
	}
}
