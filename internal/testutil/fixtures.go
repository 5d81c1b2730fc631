package testutil

import (
	"fmt"
	"strings"
)

// Project returns an SDK-style project file with one ProjectReference per ref.
func Project(refs ...string) string {
	var b strings.Builder
	b.WriteString("<Project Sdk=\"Microsoft.NET.Sdk\">\n\n")
	b.WriteString("  <PropertyGroup>\n    <TargetFramework>net8.0</TargetFramework>\n  </PropertyGroup>\n")
	if len(refs) > 0 {
		b.WriteString("\n  <ItemGroup>\n")
		for _, ref := range refs {
			fmt.Fprintf(&b, "    <ProjectReference Include=\"%s\" />\n", ref)
		}
		b.WriteString("  </ItemGroup>\n")
	}
	b.WriteString("\n</Project>\n")
	return b.String()
}

// SolutionEntry is one project line of a generated solution.
type SolutionEntry struct {
	Name string
	Path string
}

// Solution returns a Visual Studio solution listing entries, with CRLF line
// endings and a byte order mark as Visual Studio writes them.
func Solution(entries ...SolutionEntry) string {
	var b strings.Builder
	b.WriteString("\ufeff\r\n")
	b.WriteString("Microsoft Visual Studio Solution File, Format Version 12.00\r\n")
	b.WriteString("# Visual Studio Version 17\r\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "Project(\"{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}\") = \"%s\", \"%s\", \"{%08d-0000-0000-0000-000000000000}\"\r\n", e.Name, e.Path, i+1)
		b.WriteString("EndProject\r\n")
	}
	b.WriteString("Global\r\nEndGlobal\r\n")
	return b.String()
}

// SampleTree returns the files of a small solution:
//
//	Sample.sln
//	SampleApp/SampleApp.csproj  -> SampleLib
//	SampleLib/SampleLib.csproj
//	tests/SampleLib.Tests/SampleLib.Tests.csproj -> SampleLib
func SampleTree() map[string]string {
	return map[string]string{
		"Sample.sln": Solution(
			SolutionEntry{"SampleApp", `SampleApp\SampleApp.csproj`},
			SolutionEntry{"SampleLib", `SampleLib\SampleLib.csproj`},
			SolutionEntry{"SampleLib.Tests", `tests\SampleLib.Tests\SampleLib.Tests.csproj`},
		),
		"SampleApp/SampleApp.csproj":                   Project(`..\SampleLib\SampleLib.csproj`),
		"SampleApp/Program.cs":                         "Console.WriteLine(\"hi\");\n",
		"SampleLib/SampleLib.csproj":                   Project(),
		"SampleLib/Class1.cs":                          "namespace SampleLib;\npublic class Class1 { }\n",
		"SampleLib/Util/Helpers.cs":                    "namespace SampleLib.Util;\n",
		"tests/SampleLib.Tests/SampleLib.Tests.csproj": Project(`..\..\SampleLib\SampleLib.csproj`),
		"tests/SampleLib.Tests/UnitTest1.cs":           "public class UnitTest1 { }\n",
	}
}
