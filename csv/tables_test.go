package csv

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/test"
)

func sampleTables() enrollmart.Tables {
	t1 := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	t2 := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	return enrollmart.Tables{
		Users: []enrollmart.UserDim{
			{UserID: 42, UserName: "Ann, Jr.", UserCity: "Kyiv"},
			{UserID: 18446744073709551615, UserName: "Bob \"B\"", UserCity: ""},
		},
		Courses: []enrollmart.CourseDim{
			{CourseID: "go-101", CourseName: "Go", Category: "dev"},
		},
		Times: []enrollmart.TimeDim{enrollmart.NewTimeDim(t1), enrollmart.NewTimeDim(t2)},
		Facts: []enrollmart.EnrollmentFact{
			{TimeID: t1, UserID: 42, CourseID: "go-101", Price: 100, PromoCode: enrollmart.StringPtr("SPRING"), FinalPrice: enrollmart.Uint32Ptr(80)},
			{TimeID: t2, UserID: 18446744073709551615, CourseID: "go-101", Price: 4294967295},
		},
	}
}

func TestTablesRoundTrip(t *testing.T) {
	dir := test.TempDir(t)
	want := sampleTables()
	test.ErrNil(t, WriteTables(dir, want), "writing tables")

	got, err := ReadTables(dir)
	test.ErrNil(t, err, "reading tables")
	test.MustBe(t, want, got)

	content, err := ioutil.ReadFile(Path(dir, enrollmart.TableFact))
	test.ErrNil(t, err, "reading fact file")
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	test.MustBe(t, "time_id,user_id,course_id,price,promo_code,final_price", lines[0])
	test.MustBe(t, "2024-03-05 14:07:09,42,go-101,100,SPRING,80", lines[1])
	test.MustBe(t, "2024-12-31 23:00:00,18446744073709551615,go-101,4294967295,,", lines[2])
}

func TestReadTablesMissingAndEmpty(t *testing.T) {
	dir := test.TempDir(t)
	test.ErrNil(t, WriteTables(dir, enrollmart.Tables{}), "writing empty tables")
	test.ErrNil(t, os.Remove(Path(dir, enrollmart.TableCourse)), "removing course file")

	got, err := ReadTables(dir)
	test.ErrNil(t, err, "reading tables")
	if !got.Empty() {
		t.Fatalf("expected empty tables, got %+v", got)
	}
}

func TestReadTablesErrors(t *testing.T) {
	for name, tst := range map[string]struct {
		table   string
		content string
	}{
		"bad header":      {enrollmart.TableUser, "id,name,city\n1,a,b\n"},
		"bad user id":     {enrollmart.TableUser, "user_id,user_name,user_city\n-1,a,b\n"},
		"short record":    {enrollmart.TableCourse, "course_id,course_name,category\nc1,x\n"},
		"bad time":        {enrollmart.TableTime, "time_id,date,year,month,day,hour\n2024-13-01 00:00:00,2024-13-01,2024,13,1,0\n"},
		"inconsistent":    {enrollmart.TableTime, "time_id,date,year,month,day,hour\n2024-01-01 05:00:00,2024-01-01,2024,1,1,6\n"},
		"price too large": {enrollmart.TableFact, "time_id,user_id,course_id,price,promo_code,final_price\n2024-01-01 05:00:00,1,c,4294967296,,\n"},
	} {
		t.Run(name, func(t *testing.T) {
			dir := test.TempDir(t)
			test.WriteFile(t, dir, tst.table+Ext, tst.content)
			if _, err := ReadTables(dir); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDiagnosticsRoundTrip(t *testing.T) {
	dir := test.TempDir(t)
	diags := []enrollmart.Diagnostic{
		{Source: "a.log", Line: 3, Reason: enrollmart.ReasonBadPrice, Detail: `unexpected character 'x' in "1x"`, Preview: "1,a,b,..."},
		{Source: "a.log", Line: 9, Reason: enrollmart.ReasonInconsistentDiscount, Detail: "final_price 9 exceeds price 5", Preview: "line\twith tab"},
	}
	test.ErrNil(t, WriteDiagnostics(dir, diags), "writing diagnostics")
	got, err := ReadDiagnostics(dir)
	test.ErrNil(t, err, "reading diagnostics")
	test.MustBe(t, diags, got)

	none, err := ReadDiagnostics(test.TempDir(t))
	test.ErrNil(t, err, "reading missing diagnostics")
	if len(none) != 0 {
		t.Fatalf("expected no diagnostics, got %v", none)
	}
}
