package handlers

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sambecker/postdeck/pkg/imaging"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

func parsePlatforms(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var platforms []string
	if err := json.Unmarshal([]byte(raw), &platforms); err != nil {
		return nil, err
	}
	return platforms, nil
}

// readImage pulls the single optional image out of the multipart form and
// sniffs it into the canonical payload.
func readImage(c *fiber.Ctx) (*imaging.Payload, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}

	files := form.File["image"]
	if len(files) == 0 {
		return nil, nil
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return imaging.FromBytes(raw)
}
