package cli

import (
	"context"
	"fmt"

	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/service"
)

// DemoPlants is the collection created by the seed command.
func DemoPlants() []service.PlantInput {
	return []service.PlantInput{
		{Name: "Монстера", Type: "Monstera", Room: "Гостиная", WateringIntervalDays: 7, FertilizingIntervalDays: 14},
		{Name: "Фикус", Type: "Ficus", Room: "Спальня", WateringIntervalDays: 5, FertilizingIntervalDays: 30},
		{Name: "Сансевиерия", Type: "Sansevieria", Room: "Кабинет", WateringIntervalDays: 14, FertilizingIntervalDays: 30},
		{Name: "Спатифиллум", Type: "Spathiphyllum", Room: "Кухня", WateringIntervalDays: 3, FertilizingIntervalDays: 14},
		{Name: "Кактус", Type: "Cactus", Room: "Подоконник", WateringIntervalDays: 14, FertilizingIntervalDays: 30},
	}
}

// PlantCreator is the part of the plant service seeding needs.
type PlantCreator interface {
	Create(ctx context.Context, ownerID int64, input service.PlantInput) (*db.Plant, []db.CareEvent, error)
}

// Seed creates the demo plants for ownerID. Plants created before a failure are returned with the error.
func Seed(ctx context.Context, plants PlantCreator, ownerID int64) ([]db.Plant, error) {
	created := make([]db.Plant, 0, len(DemoPlants()))
	for _, input := range DemoPlants() {
		plant, _, err := plants.Create(ctx, ownerID, input)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", input.Name, err)
		}
		created = append(created, *plant)
	}
	return created, nil
}
