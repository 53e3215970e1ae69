package handlers

import (
	"bytes"
	"errors"
	"log"
	"net/mail"
	"strings"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hydrolog/internal/auth"
	dbpkg "hydrolog/internal/db"
	ui "hydrolog/web"
)

const minPasswordLen = 6

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(a *dbpkg.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// renderLogin writes the standalone login page with an optional error.
func renderLogin(ctx *fasthttp.RequestCtx, code int, errMsg string) {
	t := ui.Templates().Lookup("login.html")
	if t == nil {
		formError(ctx, fasthttp.StatusInternalServerError, "login template not found")
		return
	}
	var data map[string]any
	if errMsg != "" {
		data = map[string]any{"Error": errMsg}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		formError(ctx, fasthttp.StatusInternalServerError, "render error")
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

// sessionCookie carries the signed session; maxAge -1 clears it.
func sessionCookie(value string, maxAge int) *fasthttp.Cookie {
	c := fasthttp.AcquireCookie()
	c.SetKey(auth.CookieName)
	c.SetValue(value)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	c.SetMaxAge(maxAge)
	return c
}

func setCookie(ctx *fasthttp.RequestCtx, c *fasthttp.Cookie) {
	ctx.Response.Header.SetCookie(c)
	fasthttp.ReleaseCookie(c)
}

func LoginForm() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLogin(ctx, fasthttp.StatusOK, "")
	}
}

// LoginSubmit checks the form credentials and starts a JWT session.
func LoginSubmit(db *gorm.DB, sessions *auth.Sessions) fasthttp.RequestHandler {
	const badCredentials = "Invalid email or password."
	return func(ctx *fasthttp.RequestCtx) {
		account, err := dbpkg.FindAccountByEmail(db, string(ctx.PostArgs().Peek("email")))
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			renderLogin(ctx, fasthttp.StatusUnauthorized, badCredentials)
			return
		case err != nil:
			formError(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}
		if !checkPassword(account, string(ctx.PostArgs().Peek("password"))) {
			renderLogin(ctx, fasthttp.StatusUnauthorized, badCredentials)
			return
		}

		token, err := sessions.Issue(account.ID, account.Email)
		if err != nil {
			log.Printf("login: issue session for account %d: %v", account.ID, err)
			formError(ctx, fasthttp.StatusInternalServerError, "failed to start session")
			return
		}
		setCookie(ctx, sessionCookie(token, int(sessions.TTL().Seconds())))
		ctx.Redirect("/", fasthttp.StatusSeeOther)
	}
}

func Logout() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		setCookie(ctx, sessionCookie("", -1))
		ctx.Redirect("/login", fasthttp.StatusSeeOther)
	}
}

type signupRequest struct {
	profileRequest
	Password string `json:"password"`
}

// Signup creates the backend user, then the local account that signs in
// as it. The password never leaves this service.
func Signup(db *gorm.DB, b Backend) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req signupRequest
		if !decodeJSON(ctx, &req) {
			return
		}
		in := req.input()
		if in.FirstName == "" || in.LastName == "" {
			jsonError(ctx, fasthttp.StatusBadRequest, "first and last name are required")
			return
		}
		if _, err := mail.ParseAddress(in.Email); err != nil || strings.Contains(in.Email, "<") {
			jsonError(ctx, fasthttp.StatusBadRequest, "a valid email is required")
			return
		}
		if len(req.Password) < minPasswordLen {
			jsonError(ctx, fasthttp.StatusBadRequest, "password must have at least 6 characters")
			return
		}
		in.Email = dbpkg.NormalizeEmail(in.Email)

		var count int64
		if err := db.Model(&dbpkg.Account{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			jsonError(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}
		if count > 0 {
			jsonError(ctx, fasthttp.StatusConflict, "an account with this email already exists")
			return
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			jsonError(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		rctx, cancel := requestContext(ctx)
		defer cancel()
		u, err := b.CreateUser(rctx, in)
		if err != nil {
			writeFailed(ctx, "create_user", "failed to register user", err)
			return
		}
		if u.UserID() == "" {
			jsonError(ctx, fasthttp.StatusBadGateway, "backend returned no user id")
			return
		}

		account := dbpkg.NewAccount(in.Email, hash)
		account.BackendUserID = u.UserID()
		account.FirstName = in.FirstName
		account.LastName = in.LastName
		if err := db.Create(account).Error; err != nil {
			log.Printf("signup: backend user %s created but local account failed: %v", u.UserID(), err)
			jsonError(ctx, fasthttp.StatusInternalServerError, "failed to create account")
			return
		}

		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "account created",
			"user": map[string]any{
				"id":        account.ID,
				"email":     account.Email,
				"firstName": account.FirstName,
				"lastName":  account.LastName,
			},
		})
	}
}

func ChangePasswordSelf(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := MustAccount(ctx)
		if !ok {
			return
		}

		current := string(ctx.PostArgs().Peek("current_password"))
		newPassword := string(ctx.PostArgs().Peek("new_password"))
		confirm := string(ctx.PostArgs().Peek("confirm_password"))

		if current == "" || newPassword == "" || confirm == "" {
			formError(ctx, fasthttp.StatusBadRequest, "all password fields are required")
			return
		}
		if newPassword != confirm {
			formError(ctx, fasthttp.StatusBadRequest, "new passwords do not match")
			return
		}
		if len(newPassword) < minPasswordLen {
			formError(ctx, fasthttp.StatusBadRequest, "new password is too short")
			return
		}

		if !checkPassword(account, current) {
			formError(ctx, fasthttp.StatusUnauthorized, "current password is incorrect")
			return
		}

		hash, err := hashPassword(newPassword)
		if err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		if err := db.Model(&dbpkg.Account{}).Where("id = ?", account.ID).Update("password_hash", hash).Error; err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}

		ctx.Redirect("/settings", fasthttp.StatusSeeOther)
	}
}
