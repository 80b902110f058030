package api

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	things "github.com/goliatone/go-things"
)

// LoginPayload holds the credentials posted to /login
type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (p LoginPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Username, validation.Required),
			validation.Field(&p.Password, validation.Required),
		)
	}, "invalid login payload")
}

// ThingPayload holds the writable fields of a thing
type ThingPayload struct {
	Name *string `json:"name" form:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (s *Server) login(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		return errUnableToParse(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, err := s.auth.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(tokenResponse{Token: token})
}

func (s *Server) listThings(c *fiber.Ctx) error {
	records, err := s.repo.FindAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (s *Server) countThings(c *fiber.Ctx) error {
	count, err := s.repo.Count(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(countResponse{Count: count})
}

func (s *Server) getThing(c *fiber.Ctx) error {
	id, err := thingID(c)
	if err != nil {
		return err
	}

	thing, found, err := s.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	if !found {
		return notFound(id)
	}

	return c.JSON(thing)
}

func (s *Server) createThing(c *fiber.Ctx) error {
	payload := new(ThingPayload)
	if err := c.BodyParser(payload); err != nil {
		return errUnableToParse(err)
	}

	thing, err := s.repo.Save(c.UserContext(), &things.Thing{Name: payload.Name})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(thing)
}

func (s *Server) updateThing(c *fiber.Ctx) error {
	id, err := thingID(c)
	if err != nil {
		return err
	}

	payload := new(ThingPayload)
	if err := c.BodyParser(payload); err != nil {
		return errUnableToParse(err)
	}

	// a zero id would make Save insert
	if id == 0 {
		if _, err := s.repo.ExistsByID(c.UserContext(), id); err != nil {
			return err
		}
		return notFound(id)
	}

	thing, err := s.repo.Save(c.UserContext(), &things.Thing{ID: id, Name: payload.Name})
	if err != nil {
		return err
	}

	return c.JSON(thing)
}

func (s *Server) deleteThing(c *fiber.Ctx) error {
	id, err := thingID(c)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteByID(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// thingID parses the :id route parameter. Any non-negative id is handed to
// the repository so the role check decides before existence does.
func thingID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return 0, goerrors.New("id must be a non-negative integer", goerrors.CategoryBadInput).
			WithTextCode("INVALID_ID").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"id": c.Params("id")})
	}
	return int64(id), nil
}

func notFound(id int64) error {
	clone := things.ErrThingNotFound.Clone()
	if clone == nil {
		return things.ErrThingNotFound
	}
	clone.Source = things.ErrThingNotFound
	return clone.WithMetadata(map[string]any{"id": id})
}

func errUnableToParse(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request body").
		WithTextCode("BODY_PARSE_ERROR").
		WithCode(goerrors.CodeBadRequest)
}
