package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func mustBuild(t *testing.T, sp Spec) *Geometry {
	t.Helper()
	g, err := Build(sp)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

// stadium is a closed loop: two straights joined by clothoid-eased half turns.
func stadium() Spec {
	arc := 80 * (math.Pi - 0.75)
	half := []Segment{
		Straight(100),
		Clothoid(60, 0, 80, DirRight, SeverityNormal),
		Arc(arc, 80, DirRight, SeverityHard),
		Clothoid(60, 80, 0, DirRight, SeverityNormal),
	}
	return Spec{Segments: append(append([]Segment{}, half...), half...), SampleSpacing: 1, EnforceClosure: true}
}

// sCurve is a right-hand turn group followed by its mirror image.
func sCurve() Spec {
	return Spec{
		Segments: []Segment{
			Straight(100),
			Clothoid(60, 0, 80, DirRight, SeverityNormal),
			Arc(200, 80, DirRight, SeverityHard),
			Clothoid(60, 80, 0, DirRight, SeverityNormal),
			Straight(100),
			Clothoid(60, 0, 80, DirLeft, SeverityNormal),
			Arc(200, 80, DirLeft, SeverityHard),
			Clothoid(60, 80, 0, DirLeft, SeverityNormal),
			Straight(100),
		},
		SampleSpacing: 0.5,
	}
}

func TestBuildStraight(t *testing.T) {
	g := mustBuild(t, Spec{Segments: []Segment{Straight(100)}})

	if !approxEqual(g.Length(), 100, tolerance) {
		t.Errorf("length = %v, want 100", g.Length())
	}
	p := g.GetPose(50)
	if !approxEqual(p.Position.Z(), 50, tolerance) || !approxEqual(p.Position.X(), 0, tolerance) {
		t.Errorf("pose at 50 = %v, want (0,0,50)", p.Position)
	}
	if k := g.CurvatureAt(30); k != 0 {
		t.Errorf("straight curvature = %v, want 0", k)
	}
}

func TestBuildQuarterArc(t *testing.T) {
	r := 100.0
	g := mustBuild(t, Spec{Segments: []Segment{Arc(math.Pi/2*r, r, DirRight, SeverityEasy)}})

	end := g.EndPose()
	if !approxEqual(end.Position.X(), r, tolerance) || !approxEqual(end.Position.Z(), r, tolerance) {
		t.Errorf("end position = %v, want (%v,0,%v)", end.Position, r, r)
	}
	if !approxEqual(end.Heading, math.Pi/2, 1e-6) {
		t.Errorf("end heading = %v, want pi/2", end.Heading)
	}
	if !approxEqual(end.Tangent.X(), 1, tolerance) {
		t.Errorf("end tangent = %v, want +X", end.Tangent)
	}

	// Midway samples stay on the circle centered at (r, 0, 0).
	center := mgl64.Vec3{r, 0, 0}
	for s := 0.0; s <= g.Length(); s += 7.3 {
		if d := g.GetPose(s).Position.Sub(center).Len(); !approxEqual(d, r, 0.05) {
			t.Errorf("distance from center at s=%.1f = %.3f, want %v", s, d, r)
		}
	}
}

func TestClothoidHeadingChange(t *testing.T) {
	g := mustBuild(t, Spec{Segments: []Segment{Clothoid(60, 0, 80, DirLeft, SeverityNormal)}})

	if h := g.EndPose().Heading; !approxEqual(h, -0.375, 1e-6) {
		t.Errorf("heading change = %v, want -0.375", h)
	}
	if k := g.CurvatureAt(0); k != 0 {
		t.Errorf("curvature at start = %v, want 0", k)
	}
	if k := g.CurvatureAt(60); !approxEqual(k, -1.0/80, 1e-9) {
		t.Errorf("curvature at end = %v, want %v", k, -1.0/80)
	}
	if k := g.CurvatureAt(30); !approxEqual(k, -0.5/80, 1e-9) {
		t.Errorf("curvature at midpoint = %v, want %v", k, -0.5/80)
	}
}

func TestOrthonormalBasis(t *testing.T) {
	sp := stadium()
	sp.Segments[0].StartSlope = 0.04
	sp.Segments[0].EndSlope = -0.02
	sp.Segments[2].StartBank = 8
	sp.Segments[2].EndBank = -3
	sp.Segments[3].Elevation = 2
	sp.EnforceClosure = false
	g := mustBuild(t, sp)

	for s := 0.0; s <= g.Length(); s += 3.7 {
		p := g.GetPose(s)
		for name, v := range map[string]mgl64.Vec3{"tangent": p.Tangent, "right": p.Right, "up": p.Up} {
			if !approxEqual(v.Len(), 1, 1e-3) {
				t.Fatalf("|%s| at s=%.1f = %v, want 1", name, s, v.Len())
			}
		}
		if d := p.Tangent.Dot(p.Right); math.Abs(d) > 1e-3 {
			t.Fatalf("tangent.right at s=%.1f = %v", s, d)
		}
		if d := p.Tangent.Dot(p.Up); math.Abs(d) > 1e-3 {
			t.Fatalf("tangent.up at s=%.1f = %v", s, d)
		}
		if d := p.Right.Dot(p.Up); math.Abs(d) > 1e-3 {
			t.Fatalf("right.up at s=%.1f = %v", s, d)
		}
	}
}

func TestCurvatureSign(t *testing.T) {
	g := mustBuild(t, sCurve())

	for i := 0; i < g.SegmentCount(); i++ {
		seg := g.Segment(i)
		start, end := g.SegmentStart(i), g.SegmentStart(i)+seg.Length
		var pos, neg, nonzero bool
		for s := start; s < end; s += 0.5 {
			k := g.CurvatureAt(s)
			pos = pos || k > 0
			neg = neg || k < 0
			nonzero = nonzero || math.Abs(k) > 1e-12
		}
		switch seg.Direction {
		case DirRight:
			if !pos || neg {
				t.Errorf("segment %d (right %s): pos=%v neg=%v", i, seg.Kind, pos, neg)
			}
		case DirLeft:
			if !neg || pos {
				t.Errorf("segment %d (left %s): pos=%v neg=%v", i, seg.Kind, pos, neg)
			}
		default:
			if nonzero {
				t.Errorf("segment %d (straight) has non-zero curvature", i)
			}
		}
	}
}

func TestClosedLoopBuilds(t *testing.T) {
	g := mustBuild(t, stadium())

	dp, dh := g.ClosureError()
	if dp > 0.01 {
		t.Errorf("closure distance = %.4f, want < 0.01", dp)
	}
	if dh > 1e-3 {
		t.Errorf("closure heading = %.5f, want ~0", dh)
	}
	start, end := g.GetPose(0), g.GetPose(g.Length())
	if d := end.Position.Sub(start.Position).Len(); d >= 0.5 {
		t.Errorf("start/end distance = %v, want < 0.5", d)
	}
}

func TestClosureFailure(t *testing.T) {
	sp := stadium()
	sp.Segments = sp.Segments[:len(sp.Segments)-1]

	_, err := Build(sp)
	if !errors.Is(err, ErrClosure) {
		t.Fatalf("Build error = %v, want ErrClosure", err)
	}

	sp.EnforceClosure = false
	if _, err := Build(sp); err != nil {
		t.Errorf("open build failed: %v", err)
	}
}

func TestNineSegmentScenario(t *testing.T) {
	g := mustBuild(t, sCurve())

	if !approxEqual(g.Length(), 940, tolerance) {
		t.Errorf("length = %v, want 940", g.Length())
	}
	var pos, neg bool
	for s := 0.0; s <= g.Length(); s += 0.5 {
		k := g.CurvatureAt(s)
		pos = pos || k > 0
		neg = neg || k < 0
	}
	if !pos || !neg {
		t.Errorf("expected both curvature signs, pos=%v neg=%v", pos, neg)
	}
	if h := g.EndPose().Heading; !approxEqual(h, 0, 1e-6) {
		t.Errorf("S-curve end heading = %v, want 0", h)
	}

	// The S-curve ends well away from where it starts, so strict closure rejects it.
	sp := sCurve()
	sp.EnforceClosure = true
	if _, err := Build(sp); !errors.Is(err, ErrClosure) {
		t.Errorf("enforced S-curve error = %v, want ErrClosure", err)
	}
}

func TestElevation(t *testing.T) {
	seg := Straight(100)
	seg.Elevation = 10
	g := mustBuild(t, Spec{Segments: []Segment{seg, Straight(50)}})
	if y := g.GetPose(100).Position.Y(); !approxEqual(y, 10, tolerance) {
		t.Errorf("elevation after first segment = %v, want 10", y)
	}
	if y := g.EndPose().Position.Y(); !approxEqual(y, 10, tolerance) {
		t.Errorf("elevation at end = %v, want 10", y)
	}

	sloped := Straight(100)
	sloped.StartSlope, sloped.EndSlope = 0.05, 0.05
	g = mustBuild(t, Spec{Segments: []Segment{sloped}})
	if y := g.EndPose().Position.Y(); !approxEqual(y, 5, tolerance) {
		t.Errorf("sloped rise = %v, want 5", y)
	}
	if p := g.GetPose(50).Pitch; !approxEqual(p, math.Atan(0.05), 1e-6) {
		t.Errorf("pitch = %v, want atan(0.05)", p)
	}
}

func TestGetEdges(t *testing.T) {
	g := mustBuild(t, Spec{Segments: []Segment{Straight(20)}})
	left, right := g.GetEdges(10, 10)
	if !approxEqual(left.X(), -5, tolerance) || !approxEqual(right.X(), 5, tolerance) {
		t.Errorf("edges = %v, %v; want x=-5 and x=5", left, right)
	}
	if !approxEqual(left.Z(), 10, tolerance) || !approxEqual(right.Z(), 10, tolerance) {
		t.Errorf("edges z = %v, %v; want 10", left.Z(), right.Z())
	}
}

func TestGetPoseClamps(t *testing.T) {
	g := mustBuild(t, Spec{Segments: []Segment{Straight(10), Arc(20, 50, DirLeft, SeverityEasy)}, SampleSpacing: 3})

	if p := g.GetPose(-5); p.Distance != 0 || p.Position.Len() != 0 {
		t.Errorf("GetPose(-5) = %+v, want start", p)
	}
	if p := g.GetPose(1e9); p.Distance != g.Length() || p.Position.Sub(g.EndPose().Position).Len() > 1e-9 {
		t.Errorf("GetPose(1e9) = %+v, want end", p)
	}
	if i, u := g.SegmentAt(10); i != 1 || u != 0 {
		t.Errorf("SegmentAt(10) = %d, %v; want 1, 0", i, u)
	}
	if i, u := g.SegmentAt(30); i != 1 || !approxEqual(u, 20, 1e-9) {
		t.Errorf("SegmentAt(30) = %d, %v; want 1, 20", i, u)
	}
}

func TestSampleSpacing(t *testing.T) {
	g := mustBuild(t, Spec{Segments: []Segment{Straight(10.5)}, SampleSpacing: 1})
	pts := g.Samples()
	if len(pts) != 12 {
		t.Fatalf("samples = %d, want 12", len(pts))
	}
	if !approxEqual(pts[len(pts)-1].Z(), 10.5, 1e-9) {
		t.Errorf("last sample z = %v, want 10.5", pts[len(pts)-1].Z())
	}
	for i := 1; i < len(pts)-1; i++ {
		if !approxEqual(pts[i].Z()-pts[i-1].Z(), 1, 1e-9) {
			t.Fatalf("sample %d spacing = %v, want 1", i, pts[i].Z()-pts[i-1].Z())
		}
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		sp   Spec
		want error
	}{
		{"empty", Spec{}, ErrInvalidSpec},
		{"negative spacing", Spec{Segments: []Segment{Straight(1)}, SampleSpacing: -1}, ErrInvalidSpec},
		{"zero length", Spec{Segments: []Segment{Straight(0)}}, ErrInvalidSegment},
		{"infinite length", Spec{Segments: []Segment{Straight(math.Inf(1))}}, ErrInvalidSegment},
		{"arc zero radius", Spec{Segments: []Segment{Arc(10, 0, DirLeft, SeverityNone)}}, ErrInvalidSegment},
		{"arc without direction", Spec{Segments: []Segment{Arc(10, 20, DirStraight, SeverityNone)}}, ErrInvalidSegment},
		{"clothoid two straight ends", Spec{Segments: []Segment{Clothoid(10, 0, math.Inf(1), DirRight, SeverityNone)}}, ErrInvalidSegment},
		{"straight that turns", Spec{Segments: []Segment{{Kind: KindStraight, Length: 5, Direction: DirLeft}}}, ErrInvalidSegment},
		{"bank out of range", Spec{Segments: []Segment{{Kind: KindStraight, Length: 5, StartBank: 95}}}, ErrInvalidSegment},
		{"too many samples", Spec{Segments: []Segment{Straight(1e12)}}, ErrInvalidSpec},
		{"spacing too fine", Spec{Segments: []Segment{Straight(100)}, SampleSpacing: 1e-9}, ErrInvalidSpec},
		{"overflowing length", Spec{Segments: []Segment{Straight(math.MaxFloat64), Straight(math.MaxFloat64)}}, ErrInvalidSpec},
	}
	for _, tt := range tests {
		if _, err := Build(tt.sp); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if k, err := ParseKind("Clothoid"); err != nil || k != KindClothoid {
		t.Errorf("ParseKind(Clothoid) = %v, %v", k, err)
	}
	if d, err := ParseDirection("RIGHT"); err != nil || d != DirRight {
		t.Errorf("ParseDirection(RIGHT) = %v, %v", d, err)
	}
	if s, err := ParseSeverity("hair-pin"); err != nil || s != SeverityHairpin {
		t.Errorf("ParseSeverity(hair-pin) = %v, %v", s, err)
	}
	if _, err := ParseKind("spline"); !errors.Is(err, ErrUnknownValue) {
		t.Errorf("ParseKind(spline) error = %v, want ErrUnknownValue", err)
	}
	if got := KindArc.String(); got != "arc" {
		t.Errorf("KindArc.String() = %q", got)
	}
}

func TestNormalizeAngle(t *testing.T) {
	for in, want := range map[float64]float64{
		0: 0, 5 * math.Pi / 2: math.Pi / 2, -3 * math.Pi / 2: math.Pi / 2, 2 * math.Pi: 0, math.Pi: math.Pi,
	} {
		if got := NormalizeAngle(in); !approxEqual(got, want, 1e-9) {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}
