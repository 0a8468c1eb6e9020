package service

import (
	"errors"

	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"gorm.io/gorm"
)

type FlashcardService struct {
	Repo *repository.FlashcardRepository
}

func NewFlashcardService(repo *repository.FlashcardRepository) *FlashcardService {
	return &FlashcardService{Repo: repo}
}

func ToAPIFlashcardSet(set *model.FlashcardSet, cardCount int) api.FlashcardSet {
	out := api.FlashcardSet{
		ID:          set.ID,
		Title:       set.Title,
		Description: set.Description,
		UploadID:    set.UploadID,
		CardCount:   cardCount,
		CreatedAt:   set.CreatedAt,
	}
	for _, c := range set.Cards {
		out.Cards = append(out.Cards, api.Flashcard{ID: c.ID, Front: c.Front, Back: c.Back, Order: c.Order})
	}
	return out
}

func (s *FlashcardService) List(userID string, page, limit int) (*api.FlashcardSetList, error) {
	rows, total, err := s.Repo.List(userID, page, limit)
	if err != nil {
		return nil, err
	}
	out := &api.FlashcardSetList{
		Sets:       make([]api.FlashcardSet, 0, len(rows)),
		Pagination: api.Pagination(util.NewPagination(page, limit, total)),
	}
	for i := range rows {
		out.Sets = append(out.Sets, ToAPIFlashcardSet(&rows[i].FlashcardSet, rows[i].CardCount))
	}
	return out, nil
}

func (s *FlashcardService) Get(userID, id string) (*model.FlashcardSet, error) {
	set, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrFlashcardSetNotFound
	}
	if err != nil {
		return nil, err
	}
	if set.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return set, nil
}

func (s *FlashcardService) Create(userID string, in api.FlashcardSetInput) (*model.FlashcardSet, error) {
	set := &model.FlashcardSet{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		UploadID:    in.UploadID,
	}
	for i, c := range in.Cards {
		order := c.Order
		if order == 0 {
			order = i + 1
		}
		set.Cards = append(set.Cards, model.Flashcard{Front: c.Front, Back: c.Back, Order: order})
	}
	if err := s.Repo.Create(set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *FlashcardService) Delete(userID, id string) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}
	return s.Repo.Delete(id)
}
