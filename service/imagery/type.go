package imagery

import "image"

type IService interface {
	Decode(path string) (image.Image, error)
}
