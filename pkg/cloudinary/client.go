package cloudinary

import (
	"github.com/cloudinary/cloudinary-go/v2"
)

func New() (*cloudinary.Cloudinary, error) {
	// cloudinary.New() reads CLOUDINARY_URL from the environment
	return cloudinary.New()
}
