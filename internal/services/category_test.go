package services

import (
	"context"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operations-system/internal/dto"
	"operations-system/internal/entities"
	apperrors "operations-system/pkg/errors"
)

func uintPtr(v uint64) *uint64 { return &v }

func seedCategoryRoots() *fakeCategoryRepo {
	return newFakeCategoryRepo(
		entities.Category{ID: 1, Name: "Товари", ItemKind: entities.ItemKindEquipment, SortOrder: 1},
		entities.Category{ID: 2, Name: "Запчастини", ItemKind: entities.ItemKindParts, SortOrder: 2},
	)
}

func newTestCategoryService(catRepo *fakeCategoryRepo, eqRepo *fakeEquipmentRepo) CategoryServiceInterface {
	return NewCategoryService(catRepo, eqRepo, &fakeTxManager{}, zap.NewNop())
}

func TestBuildTree(t *testing.T) {
	categories := []entities.Category{
		{ID: 1, Name: "Товари"},
		{ID: 2, Name: "Запчастини"},
		{ID: 3, Name: "Генератори", ParentID: uintPtr(1)},
		{ID: 4, Name: "Фільтри", ParentID: uintPtr(2)},
		{ID: 5, Name: "Масляні", ParentID: uintPtr(4)},
		// Родитель 99 не существует, группа не должна пропасть.
		{ID: 6, Name: "Сирота", ParentID: uintPtr(99)},
	}

	roots := buildTree(categories)
	require.Len(t, roots, 3)

	byName := map[string]*entities.Category{}
	for _, r := range roots {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "Товари")
	require.Contains(t, byName, "Запчастини")
	require.Contains(t, byName, "Сирота")

	require.Len(t, byName["Запчастини"].Children, 1)
	filters := byName["Запчастини"].Children[0]
	assert.Equal(t, "Фільтри", filters.Name)
	require.Len(t, filters.Children, 1)
	assert.Equal(t, "Масляні", filters.Children[0].Name)
}

func TestCreateCategory(t *testing.T) {
	catRepo := seedCategoryRoots()
	svc := newTestCategoryService(catRepo, newFakeEquipmentRepo())
	ctx := context.Background()

	// Без родителя нельзя: корни создаёт только миграция.
	_, err := svc.CreateCategory(ctx, dto.CreateCategoryDTO{Name: "Генератори"})
	assert.Error(t, err)

	node, err := svc.CreateCategory(ctx, dto.CreateCategoryDTO{
		Name:     "Генератори",
		ParentID: null.Uint64From(1),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), node.ParentID.Uint64)
	// Вид наследуется от родителя.
	assert.Equal(t, "equipment", node.ItemKind)

	// Дубликат имени под тем же родителем запрещён.
	_, err = svc.CreateCategory(ctx, dto.CreateCategoryDTO{
		Name:     "Генератори",
		ParentID: null.Uint64From(1),
	})
	assert.Error(t, err)
}

func TestDeleteCategoryGuards(t *testing.T) {
	catRepo := seedCategoryRoots()
	eqRepo := newFakeEquipmentRepo()
	svc := newTestCategoryService(catRepo, eqRepo)
	ctx := context.Background()

	// Корень удалять нельзя.
	err := svc.DeleteCategory(ctx, 1)
	assert.Error(t, err)

	parent, err := svc.CreateCategory(ctx, dto.CreateCategoryDTO{Name: "Фільтри", ParentID: null.Uint64From(2)})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, dto.CreateCategoryDTO{Name: "Масляні", ParentID: null.Uint64From(parent.ID)})
	require.NoError(t, err)

	// С подгруппами нельзя.
	err = svc.DeleteCategory(ctx, parent.ID)
	assert.ErrorIs(t, err, apperrors.ErrCategoryHasChildren)

	// С привязанным обладнанням нельзя.
	eqRepo.put(entities.Equipment{
		Type: "Фільтр масляний", Quantity: 3, Status: entities.StatusInStock, CategoryID: uintPtr(child.ID),
	})
	err = svc.DeleteCategory(ctx, child.ID)
	assert.ErrorIs(t, err, apperrors.ErrCategoryInUse)

	empty, err := svc.CreateCategory(ctx, dto.CreateCategoryDTO{Name: "Паливні", ParentID: null.Uint64From(parent.ID)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(ctx, empty.ID))
}

func TestMigrateEquipment(t *testing.T) {
	catRepo := seedCategoryRoots()
	eqRepo := newFakeEquipmentRepo()
	eqRepo.put(entities.Equipment{Type: "Свічка", Quantity: 1, IsServicePart: true})
	eqRepo.put(entities.Equipment{Type: "Реле", Quantity: 1, IsElectroPart: true})
	eqRepo.put(entities.Equipment{Type: "Ганчір'я", Quantity: 1, IsInternalUse: true})
	eqRepo.put(entities.Equipment{Type: "DE-275RSS", Quantity: 1})
	// Уже распределённая запись не трогается.
	eqRepo.put(entities.Equipment{Type: "DE-110RSS", Quantity: 1, CategoryID: uintPtr(1)})
	svc := newTestCategoryService(catRepo, eqRepo)

	result, err := svc.MigrateEquipment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ServiceParts)
	assert.Equal(t, 1, result.ElectroParts)
	assert.Equal(t, 1, result.InternalUse)
	assert.Equal(t, 1, result.Equipment)
	assert.Equal(t, 4, result.Total)

	// Служебные подгруппы созданы под корнем «Запчастини».
	_, err = catRepo.FindByNameUnderParent(context.Background(), nil, 2, "Сервісні запчастини")
	require.NoError(t, err)
	_, err = catRepo.FindByNameUnderParent(context.Background(), nil, 2, "Електрозапчастини")
	require.NoError(t, err)
	_, err = catRepo.FindByNameUnderParent(context.Background(), nil, 2, "Внутрішнє використання")
	require.NoError(t, err)

	// Повторная миграция ничего не меняет.
	again, err := svc.MigrateEquipment(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Total)
}
