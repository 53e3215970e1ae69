package handlers

import (
	"errors"
	"log"
	"net/mail"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"hydrolog/internal/config"
	dbpkg "hydrolog/internal/db"
)

// adminForm reads the admin "create user" form.
type adminForm struct {
	email, password     string
	firstName, lastName string
	backendUserID       string
	isAdmin             bool
}

func readAdminForm(ctx *fasthttp.RequestCtx) adminForm {
	args := ctx.PostArgs()
	field := func(name string) string { return strings.TrimSpace(string(args.Peek(name))) }
	return adminForm{
		email:         field("email"),
		password:      string(args.Peek("password")),
		firstName:     field("first_name"),
		lastName:      field("last_name"),
		backendUserID: field("backend_user_id"),
		isAdmin:       field("is_admin") == "true",
	}
}

func (f adminForm) validate() error {
	if _, err := mail.ParseAddress(f.email); err != nil {
		return errors.New("a valid email is required")
	}
	if len(f.password) < minPasswordLen {
		return errors.New("password must have at least 6 characters")
	}
	return nil
}

// CreateUser lets an admin add a local account. backend_user_id is
// optional and links the account to existing backend data.
func CreateUser(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		form := readAdminForm(ctx)
		if err := form.validate(); err != nil {
			formError(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		hash, err := hashPassword(form.password)
		if err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		account := dbpkg.NewAccount(form.email, hash)
		account.IsAdmin = form.isAdmin
		account.BackendUserID = form.backendUserID
		account.FirstName = form.firstName
		account.LastName = form.lastName
		if err := db.Create(account).Error; err != nil {
			formError(ctx, fasthttp.StatusBadRequest, "failed to create user (email may already exist)")
			return
		}
		log.Printf("admin created account %d (%s)", account.ID, account.Email)
		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}

// accountFromPath loads the account named by the {id} route parameter and
// refuses the bootstrap admin. It writes the error response itself.
func accountFromPath(ctx *fasthttp.RequestCtx, db *gorm.DB, cfg *config.Config) (*dbpkg.Account, bool) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		formError(ctx, fasthttp.StatusBadRequest, "invalid user ID")
		return nil, false
	}

	var account dbpkg.Account
	if err := db.First(&account, id).Error; err != nil {
		formError(ctx, fasthttp.StatusNotFound, "user not found")
		return nil, false
	}
	if account.Email == dbpkg.NormalizeEmail(cfg.AdminEmail) {
		formError(ctx, fasthttp.StatusForbidden, "cannot modify bootstrap admin user")
		return nil, false
	}
	return &account, true
}

func ResetPassword(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := accountFromPath(ctx, db, cfg)
		if !ok {
			return
		}
		password := string(ctx.PostArgs().Peek("password"))
		if len(password) < minPasswordLen {
			formError(ctx, fasthttp.StatusBadRequest, "password must have at least 6 characters")
			return
		}
		hash, err := hashPassword(password)
		if err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}
		if err := db.Model(account).Update("password_hash", hash).Error; err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}
		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}

// DeleteUser removes the account with its tokens and voice links. Backend
// records are left alone.
func DeleteUser(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := accountFromPath(ctx, db, cfg)
		if !ok {
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, model := range []any{&dbpkg.APIToken{}, &dbpkg.VoiceLink{}, &dbpkg.LinkCode{}} {
				if err := tx.Where("account_id = ?", account.ID).Delete(model).Error; err != nil {
					return err
				}
			}
			return tx.Delete(account).Error
		})
		if err != nil {
			log.Printf("delete account %d: %v", account.ID, err)
			formError(ctx, fasthttp.StatusInternalServerError, "failed to delete user")
			return
		}
		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}
