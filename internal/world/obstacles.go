package world

import "math/rand"

const (
	edgeInset        = 100.0
	wallMinWidth     = 100.0
	wallWidthSpan    = 200.0
	wallMinHeight    = 20.0
	wallHeightSpan   = 30.0
	obstacleMinR     = 30.0
	obstacleRadiusSp = 40.0
)

// Wall is an axis-aligned blocking rectangle.
type Wall struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Obstacle is a circular blocker.
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// GenerateWalls scatters count rectangles with their top-left corner inside
// [100, width-200) x [100, height-200).
func GenerateWalls(rng *rand.Rand, width, height float64, count int) []Wall {
	if count <= 0 {
		return nil
	}
	walls := make([]Wall, 0, count)
	for i := 0; i < count; i++ {
		walls = append(walls, Wall{
			X: RandomRange(rng, edgeInset, width-3*edgeInset),
			Y: RandomRange(rng, edgeInset, height-3*edgeInset),
			W: RandomRange(rng, wallMinWidth, wallWidthSpan),
			H: RandomRange(rng, wallMinHeight, wallHeightSpan),
		})
	}
	return walls
}

// GenerateObstacles scatters count circles with centres 100 units from each edge.
func GenerateObstacles(rng *rand.Rand, width, height float64, count int) []Obstacle {
	if count <= 0 {
		return nil
	}
	obstacles := make([]Obstacle, 0, count)
	for i := 0; i < count; i++ {
		obstacles = append(obstacles, Obstacle{
			X:      RandomRange(rng, edgeInset, width-2*edgeInset),
			Y:      RandomRange(rng, edgeInset, height-2*edgeInset),
			Radius: RandomRange(rng, obstacleMinR, obstacleRadiusSp),
		})
	}
	return obstacles
}

// GenerateSpawnPoints picks count points 100 units away from each edge.
func GenerateSpawnPoints(rng *rand.Rand, width, height float64, count int) []Vec2 {
	points := make([]Vec2, 0, count)
	for i := 0; i < count; i++ {
		points = append(points, Vec2{
			X: RandomRange(rng, edgeInset, width-2*edgeInset),
			Y: RandomRange(rng, edgeInset, height-2*edgeInset),
		})
	}
	return points
}
