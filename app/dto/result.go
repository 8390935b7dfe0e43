package dto

import "github.com/taskmaster-solutions/ms-go-tasks/app/entity"

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}
