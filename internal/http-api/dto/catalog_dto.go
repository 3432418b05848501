package dto

import (
	"circdesk/internal/http-api/models"
)

type CreateTitleRequest struct {
	ISBN    string `json:"isbn" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Author  string `json:"author" binding:"required"`
	PubYear int    `json:"pub_year"`
	Genre   string `json:"genre"`
}

type UpdateTitleRequest struct {
	Name      string `json:"name"`
	Author    string `json:"author"`
	PubYear   int    `json:"pub_year"`
	Genre     string `json:"genre"`
	IsVisible *bool  `json:"is_visible"`
}

type AddCopyRequest struct {
	TitleID  int64  `json:"title_id" binding:"required"`
	Barcode  string `json:"barcode" binding:"required"`
	Location string `json:"location"`
}

type SetCopyStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TitleResponse struct {
	ID        int64  `json:"id"`
	ISBN      string `json:"isbn"`
	Name      string `json:"name"`
	Author    string `json:"author"`
	PubYear   int    `json:"pub_year"`
	Genre     string `json:"genre"`
	IsVisible bool   `json:"is_visible"`
}

type CopyResponse struct {
	ID       int64  `json:"id"`
	TitleID  int64  `json:"title_id"`
	Barcode  string `json:"barcode"`
	Status   string `json:"status"`
	Location string `json:"location"`
}

func FromModelToTitleResponse(title *models.Title) TitleResponse {
	return TitleResponse{
		ID:        title.ID,
		ISBN:      title.ISBN,
		Name:      title.Name,
		Author:    title.Author,
		PubYear:   title.PubYear,
		Genre:     title.Genre,
		IsVisible: title.IsVisible,
	}
}

func FromModelToTitleResponses(titles []models.Title) []TitleResponse {
	out := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		out = append(out, FromModelToTitleResponse(&titles[i]))
	}
	return out
}

func FromModelToCopyResponse(copy *models.Copy) CopyResponse {
	return CopyResponse{
		ID:       copy.ID,
		TitleID:  copy.TitleID,
		Barcode:  copy.Barcode,
		Status:   string(copy.Status),
		Location: copy.Location,
	}
}
