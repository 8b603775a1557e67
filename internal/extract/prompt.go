package extract

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/chunk"
)

// DefaultSystemPrompt is used when no system prompt file is configured.
const DefaultSystemPrompt = `You extract physical components from IFC (STEP) entity data.
Answer with a single JSON object and nothing else.`

const outputContract = `Extract ALL components found in this chunk including:
- The parent assembly itself
- All child components (welds, tubes, fittings, attachments, etc.)
- Complete properties for each component
- Accurate coordinates (x, y, z) from IFCLOCALPLACEMENT/IFCAXIS2PLACEMENT3D/IFCCARTESIANPOINT entities
- Material assignments

For coordinates:
1. Follow IFCLOCALPLACEMENT references to find IFCAXIS2PLACEMENT3D
2. Take the x,y,z values from the referenced IFCCARTESIANPOINT
3. Use the exact numeric values
4. If coordinates are missing, set x, y and z to null (not 0)

Return a JSON object with this exact structure:
{
  "components": [
    {
      "globalId": "unique_id",
      "type": "IFCFLOWFITTING",
      "name": "component name",
      "x": 0.0,
      "y": 0.0,
      "z": 0.0,
      "material": "material name",
      "properties": {}
    }
  ]
}`

// Prompt builds the user prompt for one chunk.
func Prompt(c chunk.Chunk) string {
	st := c.Stats()
	a := c.Assembly

	var sb strings.Builder
	sb.WriteString("Extract all components from this IFC assembly chunk.\n\n")
	fmt.Fprintf(&sb, "Assembly: %s - %s (ID: %s)\n", a.Tag, a.Name, a.ID)
	fmt.Fprintf(&sb, "This chunk contains %d IFC entities for a complete %s assembly.\n", st.Entities, a.Tag)
	fmt.Fprintf(&sb, "Coordinate entities included: %d (placement/position data)\n\n", st.Coordinates())
	sb.WriteString("IMPORTANT: Return ONLY a valid JSON object. Do not include any explanation or text outside the JSON.\n\n")
	sb.WriteString("IFC Data Chunk:\n")
	sb.WriteString(c.Text())
	sb.WriteString("\n\n")
	sb.WriteString(outputContract)
	return sb.String()
}
