package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Постоянная Эйлера-Маскерони для средней длины пути в бинарном дереве
const eulerGamma = 0.5772156649015329

// Train строит изолирующий лес по матрице признаков. Каждое дерево
// обучается на случайной подвыборке размера не более cfg.SampleSize;
// высота дерева ограничена ceil(log2(ψ)). Порог отсечения Offset
// вычисляется как перцентиль оценок обучающей выборки, отвечающий
// ожидаемой доле аномалий
func Train(samples [][]float64, cfg Config) (*Forest, error) {
	n := len(samples)
	if n < 2 {
		return nil, fmt.Errorf("недостаточно данных для обучения леса: %d строк", n)
	}

	psi := cfg.SampleSize
	if psi > n {
		psi = n
	}
	heightLimit := int(math.Ceil(math.Log2(float64(psi))))

	rng := rand.New(rand.NewSource(cfg.Seed))

	forest := &Forest{
		Trees:       make([]*treeNode, 0, cfg.Trees),
		Psi:         psi,
		SampleCount: n,
		TrainedAt:   time.Now().UTC(),
	}

	for t := 0; t < cfg.Trees; t++ {
		subsample := make([][]float64, psi)
		for i, j := range rng.Perm(n)[:psi] {
			subsample[i] = samples[j]
		}
		forest.Trees = append(forest.Trees, buildTree(subsample, 0, heightLimit, rng))
	}

	scores := make([]float64, n)
	for i, x := range samples {
		scores[i] = forest.ScoreSamples(x)
	}
	forest.Offset = percentile(scores, 100*cfg.Contamination)

	return forest, nil
}

// buildTree рекурсивно разбивает выборку случайной гиперплоскостью:
// случайный признак, случайный порог между минимумом и максимумом.
// Рост останавливается на пределе высоты, единственной точке или
// вырожденной выборке
func buildTree(samples [][]float64, depth, limit int, rng *rand.Rand) *treeNode {
	if depth >= limit || len(samples) <= 1 {
		return &treeNode{Feature: -1, Size: len(samples)}
	}

	features := splittableFeatures(samples)
	if len(features) == 0 {
		return &treeNode{Feature: -1, Size: len(samples)}
	}

	feature := features[rng.Intn(len(features))]
	lo, hi := featureRange(samples, feature)
	threshold := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, x := range samples {
		if x[feature] < threshold {
			left = append(left, x)
		} else {
			right = append(right, x)
		}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Size:      len(samples),
		Left:      buildTree(left, depth+1, limit, rng),
		Right:     buildTree(right, depth+1, limit, rng),
	}
}

// pathLength возвращает длину пути точки по дереву: глубина листа плюс
// поправка на средний путь по неразделенным точкам листа
func pathLength(x []float64, node *treeNode, depth float64) float64 {
	if node.Left == nil && node.Right == nil {
		return depth + averagePathLength(node.Size)
	}
	if x[node.Feature] < node.Threshold {
		return pathLength(x, node.Left, depth+1)
	}
	return pathLength(x, node.Right, depth+1)
}

// averagePathLength — средняя длина пути неудачного поиска в бинарном
// дереве из n точек: 2*(ln(n-1)+γ) - 2*(n-1)/n
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		nf := float64(n)
		return 2*(math.Log(nf-1)+eulerGamma) - 2*(nf-1)/nf
	}
}

// ScoreSamples возвращает оценку точки в диапазоне [-1, 0): чем ближе
// к -1, тем короче средний путь изоляции и тем аномальнее точка.
// Оценка равна -2^(-E[h(x)]/c(ψ))
func (f *Forest) ScoreSamples(x []float64) float64 {
	total := 0.0
	for _, tree := range f.Trees {
		total += pathLength(x, tree, 0)
	}
	avg := total / float64(len(f.Trees))
	return -math.Pow(2, -avg/averagePathLength(f.Psi))
}

// Decision возвращает оценку, смещенную на порог отсечения:
// отрицательное значение означает аномалию
func (f *Forest) Decision(x []float64) float64 {
	return f.ScoreSamples(x) - f.Offset
}

// percentile вычисляет p-й перцентиль с линейной интерполяцией между
// соседними порядковыми статистиками
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// splittableFeatures возвращает индексы признаков, по которым выборку
// еще можно разделить (минимум и максимум различаются)
func splittableFeatures(samples [][]float64) []int {
	var features []int
	for f := 0; f < len(samples[0]); f++ {
		lo, hi := featureRange(samples, f)
		if hi > lo {
			features = append(features, f)
		}
	}
	return features
}

func featureRange(samples [][]float64, feature int) (float64, float64) {
	lo, hi := samples[0][feature], samples[0][feature]
	for _, x := range samples[1:] {
		if x[feature] < lo {
			lo = x[feature]
		}
		if x[feature] > hi {
			hi = x[feature]
		}
	}
	return lo, hi
}
