package ports

// RNG provides the uniform draws behind weighted variant selection and
// visit sampling. Seeding it makes assignment decisions reproducible in
// tests; *math/rand.Rand satisfies the interface.
type RNG interface {
	Float64() float64
}
