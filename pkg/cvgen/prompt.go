package cvgen

import "fmt"

// promptTemplate instructs the model to tailor the resume to the job and
// answer with a single fenced JSON document matching the CV schema the
// frontend renders. Relevance scores guide the frontend's ordering.
const promptTemplate = `I need you to create a tailored CV in JSON format based on a candidate's resume and a job description.

JOB DESCRIPTION:
%s

CANDIDATE'S RESUME:
%s

Please analyze the resume and the job description, then create a tailored CV that highlights the most relevant experiences, skills, and qualifications for this specific job.

Return ONLY the JSON data in the following format without any additional explanation or text:

` + "```json" + `
{
  "fullName": "Candidate's full name from resume",
  "jobTitle": "A title that matches the job being applied for",
  "summary": "A concise professional summary tailored to this role",
  "email": "Email from resume",
  "linkedin": "LinkedIn URL from resume (or created based on name)",
  "phone": "Phone number from resume",
  "location": "Location from resume",

  "experience": [
    {
      "jobTitle": "Position title",
      "company": "Company name",
      "dates": "Start date - End date (or Present)",
      "description": "Brief description focused on relevant responsibilities",
      "achievements": [
        "Achievement 1 with quantifiable results",
        "Achievement 2 with quantifiable results",
        "Achievement 3 with quantifiable results"
      ],
      "relevanceScore": 95
    }
  ],

  "education": [
    {
      "degree": "Degree name",
      "institution": "Institution name",
      "dates": "Start year - End year",
      "relevanceScore": 80
    }
  ],

  "skills": [
    "Technical: Skill1, Skill2, Skill3",
    "Soft Skills: Communication, Leadership, Problem-solving"
  ],

  "certifications": [
    "Certification 1 with year if available",
    "Certification 2 with year if available"
  ],

  "skillGapAnalysis": {
    "matchingSkills": ["List skills from resume that match job requirements"],
    "missingSkills": ["Important skills mentioned in job that candidate doesn't have"],
    "overallMatch": 85
  }
}
` + "```" + `

Prioritize skills and experience that are most relevant to the job description. For each experience and education item, add a relevanceScore from 0-100 indicating relevance to this job. Include the skillGapAnalysis section to help understand the fit for the role.`

// buildPrompt renders the generation prompt for the given inputs.
func buildPrompt(jobDescription, resume string) string {
	return fmt.Sprintf(promptTemplate, jobDescription, resume)
}
