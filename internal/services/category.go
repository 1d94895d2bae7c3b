package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	"operations-system/internal/repositories"
	apperrors "operations-system/pkg/errors"
)

type CategoryServiceInterface interface {
	GetTree(ctx context.Context) ([]dto.CategoryNodeDTO, error)
	FindCategory(ctx context.Context, id uint64) (*dto.CategoryNodeDTO, error)
	CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (*dto.CategoryNodeDTO, error)
	UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) (*dto.CategoryNodeDTO, error)
	DeleteCategory(ctx context.Context, id uint64) error
	MigrateEquipment(ctx context.Context) (*dto.MigrateEquipmentResultDTO, error)
}

type CategoryService struct {
	categoryRepo  repositories.CategoryRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	txManager     repositories.TxManagerInterface
	logger        *zap.Logger
}

func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) CategoryServiceInterface {
	return &CategoryService{
		categoryRepo:  categoryRepo,
		equipmentRepo: equipmentRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

func mapCategoryNode(c *entities.Category) dto.CategoryNodeDTO {
	node := dto.CategoryNodeDTO{
		ID:        c.ID,
		Name:      c.Name,
		ParentID:  null.Uint64FromPtr(c.ParentID),
		ItemKind:  string(c.ItemKind),
		SortOrder: c.SortOrder,
		Children:  []dto.CategoryNodeDTO{},
	}
	for _, child := range c.Children {
		node.Children = append(node.Children, mapCategoryNode(child))
	}
	return node
}

// buildTree собирает дерево из плоского списка за один проход по индексу.
func buildTree(categories []entities.Category) []*entities.Category {
	index := make(map[uint64]*entities.Category, len(categories))
	for i := range categories {
		index[categories[i].ID] = &categories[i]
	}

	var roots []*entities.Category
	for i := range categories {
		c := &categories[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := index[*c.ParentID]; ok {
			parent.Children = append(parent.Children, c)
		} else {
			// Осиротевшая группа поднимается в корень, чтобы не пропасть.
			roots = append(roots, c)
		}
	}
	return roots
}

func (s *CategoryService) GetTree(ctx context.Context) ([]dto.CategoryNodeDTO, error) {
	categories, err := s.categoryRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	roots := buildTree(categories)
	result := make([]dto.CategoryNodeDTO, 0, len(roots))
	for _, root := range roots {
		result = append(result, mapCategoryNode(root))
	}
	return result, nil
}

func (s *CategoryService) FindCategory(ctx context.Context, id uint64) (*dto.CategoryNodeDTO, error) {
	c, err := s.categoryRepo.FindCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	node := mapCategoryNode(c)
	return &node, nil
}

// CreateCategory создаёт подгруппу. Корни создаются только миграцией БД,
// поэтому родитель обязателен.
func (s *CategoryService) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (*dto.CategoryNodeDTO, error) {
	if !payload.ParentID.Valid {
		return nil, apperrors.NewInvalidInputError("потрібно вказати батьківську групу")
	}

	parent, err := s.categoryRepo.FindCategory(ctx, payload.ParentID.Uint64)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("батьківську групу %d не знайдено", payload.ParentID.Uint64)
	}

	category := entities.Category{
		Name:      payload.Name,
		ParentID:  &parent.ID,
		ItemKind:  parent.ItemKind,
		SortOrder: payload.SortOrder,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if existing, err := s.categoryRepo.FindByNameUnderParent(ctx, tx, parent.ID, payload.Name); err == nil {
			return apperrors.NewInvalidInputError("група «%s» вже існує (id %d)", payload.Name, existing.ID)
		}
		id, err := s.categoryRepo.CreateCategory(ctx, tx, category)
		if err != nil {
			return err
		}
		category.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("группа создана", zap.Uint64("id", category.ID), zap.String("name", payload.Name))
	node := mapCategoryNode(&category)
	return &node, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) (*dto.CategoryNodeDTO, error) {
	category, err := s.categoryRepo.FindCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.ParentID == nil {
		return nil, apperrors.NewInvalidInputError("кореневу групу змінювати не можна")
	}

	if payload.Name.Valid {
		category.Name = payload.Name.String
	}
	if payload.SortOrder.Valid {
		category.SortOrder = payload.SortOrder.Int
	}
	if err := s.categoryRepo.UpdateCategory(ctx, id, *category); err != nil {
		return nil, err
	}
	node := mapCategoryNode(category)
	return &node, nil
}

// DeleteCategory удаляет только пустой лист: без подгрупп и без обладнання.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint64) error {
	category, err := s.categoryRepo.FindCategory(ctx, id)
	if err != nil {
		return err
	}
	if category.ParentID == nil {
		return apperrors.NewInvalidInputError("кореневу групу видаляти не можна")
	}

	children, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	inUse, err := s.equipmentRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("группа удалена", zap.Uint64("id", id), zap.String("name", category.Name))
	return nil
}

// MigrateEquipment раскладывает записи без категории по корневым корзинам
// по легаси-флагам старой базы.
func (s *CategoryService) MigrateEquipment(ctx context.Context) (*dto.MigrateEquipmentResultDTO, error) {
	partsRoot, err := s.categoryRepo.FindRootByKind(ctx, entities.ItemKindParts)
	if err != nil {
		return nil, err
	}
	equipmentRoot, err := s.categoryRepo.FindRootByKind(ctx, entities.ItemKindEquipment)
	if err != nil {
		return nil, err
	}

	ensureChild := func(ctx context.Context, tx pgx.Tx, parentID uint64, name string, kind entities.ItemKind) (uint64, error) {
		if existing, err := s.categoryRepo.FindByNameUnderParent(ctx, tx, parentID, name); err == nil {
			return existing.ID, nil
		}
		return s.categoryRepo.CreateCategory(ctx, tx, entities.Category{
			Name:     name,
			ParentID: &parentID,
			ItemKind: kind,
		})
	}

	var result *dto.MigrateEquipmentResultDTO
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		serviceID, err := ensureChild(ctx, tx, partsRoot.ID, "Сервісні запчастини", entities.ItemKindParts)
		if err != nil {
			return err
		}
		electroID, err := ensureChild(ctx, tx, partsRoot.ID, "Електрозапчастини", entities.ItemKindParts)
		if err != nil {
			return err
		}
		internalID, err := ensureChild(ctx, tx, partsRoot.ID, "Внутрішнє використання", entities.ItemKindParts)
		if err != nil {
			return err
		}

		result, err = s.equipmentRepo.MigrateLegacyCategories(ctx, tx, serviceID, electroID, internalID, equipmentRoot.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("миграция категорий выполнена", zap.Int("total", result.Total))
	return result, nil
}
