package dto

type CategoryDTO struct {
	CourseCategoryName string `json:"courseCategoryName" validate:"required,max=120"`
}
