package domain

type Stage string

const (
	StageCollected Stage = "COLLECTED"
	StageInTransit Stage = "IN_TRANSIT"
	StageReceived  Stage = "RECEIVED"
	StageInProcess Stage = "IN_PROCESS"
	StageWashing   Stage = "WASHING"
	StageDrying    Stage = "DRYING"
	StageIroning   Stage = "IRONING"
	StageFolding   Stage = "FOLDING"
	StagePackaging Stage = "PACKAGING"
	StageShipping  Stage = "SHIPPING"
	StageLoading   Stage = "LOADING"
	StageDelivery  Stage = "DELIVERY"
	StageCompleted Stage = "COMPLETED"
)

type ServiceType string

const (
	ServiceIndustrial ServiceType = "INDUSTRIAL"
	ServicePersonal   ServiceType = "PERSONAL"
)

// Successor maps per service type. Industrial loads skip ironing/folding and
// go straight from drying to packaging; personal garments take the long path.
// The shared prefix/suffix lives once and the branch is spliced in, so there
// is exactly one definition of each route.
var (
	commonPrefix = map[Stage]Stage{
		StageCollected: StageInTransit,
		StageInTransit: StageReceived,
		StageReceived:  StageInProcess,
		StageInProcess: StageWashing,
		StageWashing:   StageDrying,
	}
	commonSuffix = map[Stage]Stage{
		StagePackaging: StageShipping,
		StageShipping:  StageLoading,
		StageLoading:   StageDelivery,
		StageDelivery:  StageCompleted,
	}

	industrialNext = buildRoute(map[Stage]Stage{
		StageDrying: StagePackaging,
	})
	personalNext = buildRoute(map[Stage]Stage{
		StageDrying:  StageIroning,
		StageIroning: StageFolding,
		StageFolding: StagePackaging,
	})
)

func buildRoute(branch map[Stage]Stage) map[Stage]Stage {
	route := make(map[Stage]Stage, len(commonPrefix)+len(branch)+len(commonSuffix))
	for from, to := range commonPrefix {
		route[from] = to
	}
	for from, to := range branch {
		route[from] = to
	}
	for from, to := range commonSuffix {
		route[from] = to
	}
	return route
}

func routeFor(serviceType ServiceType) map[Stage]Stage {
	switch serviceType {
	case ServiceIndustrial:
		return industrialNext
	case ServicePersonal:
		return personalNext
	default:
		return nil
	}
}

// NextStage returns the stage following current on the given service route.
// The second result is false at COMPLETED, for stages outside the route
// (e.g. IRONING on an industrial guide) and for unknown service types.
func NextStage(current Stage, serviceType ServiceType) (Stage, bool) {
	next, ok := routeFor(serviceType)[current]
	return next, ok
}

// IsValidTransition reports whether from→to is an edge of the service route.
// Self-transitions, skips and regressions are all invalid.
func IsValidTransition(from, to Stage, serviceType ServiceType) bool {
	next, ok := routeFor(serviceType)[from]
	return ok && next == to
}

// IsKnownStage reports whether s is a node of the stage graph.
func IsKnownStage(s Stage) bool {
	if s == StageCompleted || s == StageIroning || s == StageFolding {
		return true
	}
	_, inIndustrial := industrialNext[s]
	_, inPersonal := personalNext[s]
	return inIndustrial || inPersonal
}
