package rest

import (
	"errors"
	"strconv"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const imageField = "image"

type postRequest struct {
	Title     string `json:"title" form:"title"`
	Content   string `json:"content" form:"content"`
	ImagePath string `json:"imagePath" form:"imagePath"`
}

// queryInt returns 0 for anything that is not an integer.
func queryInt(c *fiber.Ctx, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) listPosts(c *fiber.Ctx) error {
	posts, total, err := s.posts.List(c.UserContext(), queryInt(c, "pagesize"), queryInt(c, "page"))
	if err != nil {
		return s.classify(c, err, "Fetching posts failed!")
	}

	return c.JSON(fiber.Map{
		"message":    "Posts fetched successfully!",
		"posts":      posts,
		"totalPosts": total,
	})
}

func (s *Server) getPost(c *fiber.Ctx) error {
	post, err := s.posts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, msgPostNotFound)
		}
		return s.classify(c, err, "Fetching post failed!")
	}
	return c.JSON(post)
}

// uploadedImage returns the multipart image part, if the request has one.
// The caller closes the returned reader.
func uploadedImage(c *fiber.Ctx) (*models.NewAsset, func(), error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return nil, nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}

	return &models.NewAsset{
		Name:         fh.Filename,
		DeclaredType: fh.Header.Get(fiber.HeaderContentType),
		Content:      f,
	}, func() { _ = f.Close() }, nil
}

func (s *Server) createPost(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	image, closeImage, err := uploadedImage(c)
	if err != nil {
		return s.classify(c, err, "Creating a post failed!")
	}
	if image == nil {
		return fiber.NewError(fiber.StatusBadRequest, "image is required")
	}
	defer closeImage()

	post, err := s.posts.Create(c.UserContext(), owner, req.Title, req.Content, *image)
	if err != nil {
		return s.classify(c, err, "Creating a post failed!")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post added successfully",
		"post":    post,
	})
}

func (s *Server) updatePost(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	upd := models.PostUpdate{Title: req.Title, Content: req.Content}

	image, closeImage, err := uploadedImage(c)
	if err != nil {
		return s.classify(c, err, "Could not update post")
	}
	if image != nil {
		defer closeImage()
		upd.Image = *image
	} else {
		upd.Image = models.ExistingAssetRef{URL: req.ImagePath}
	}

	post, err := s.posts.Update(c.UserContext(), c.Params("id"), owner, upd)
	if err != nil {
		return s.classify(c, err, "Could not update post")
	}

	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

func (s *Server) deletePost(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(c.UserContext(), c.Params("id"), owner); err != nil {
		return s.classify(c, err, "Deleting post failed!")
	}

	return c.JSON(fiber.Map{"message": "Deletion successful!"})
}
